package napsync

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/models"
	"github.com/locallens/presence_backend/utils"
)

// SyncPubSubPayload is the message body carried between the trigger endpoint
// and the push worker. The run row exists in status queued before publish.
type SyncPubSubPayload struct {
	RunId      uint   `json:"run_id"`
	OrgId      string `json:"org_id"`
	LocationId uint   `json:"location_id"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func PublishSyncRun(ctx context.Context, runId uint, orgId string, locationId uint) error {
	topicName := strings.TrimSpace(os.Getenv("NAP_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "nap-sync"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if utils.EnvBoolDefault("NAP_SYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	payload := SyncPubSubPayload{
		RunId:      runId,
		OrgId:      orgId,
		LocationId: locationId,
	}
	data, _ := json.Marshal(payload)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// PubSubPushHandler processes one queued sync run delivered by a Pub/Sub push
// subscription. Always acks with 204: the engine records its own failures and
// a redelivery of a malformed message would never succeed anyway.
func PubSubPushHandler(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.EnvBoolDefault("ENABLE_NAP_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload SyncPubSubPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if payload.RunId == 0 || payload.OrgId == "" || payload.LocationId == 0 {
			c.Status(204)
			return
		}

		ctx := utils.SetOrgIdInContext(c.Request.Context(), payload.OrgId)
		engine.RunNAPSync(ctx, payload.RunId, payload.LocationId, payload.OrgId, models.SyncTriggeredManual)
		c.Status(204)
	}
}

// FleetSweepPushHandler runs the scheduled all-locations sweep, normally
// triggered by Cloud Scheduler via a Pub/Sub push subscription.
func FleetSweepPushHandler(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.FleetSweepEnabled() {
			c.Status(204)
			return
		}

		ctx := utils.SetSkipTenantScopeInContext(c.Request.Context())
		processed, failed := engine.RunNAPSyncForAllLocations(ctx)
		c.JSON(200, gin.H{"processed": processed, "failed": failed})
	}
}
