package napsync

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func generateES256KeyPEM(t *testing.T) (string, *ecdsa.PublicKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return string(pemBytes), &key.PublicKey
}

func TestAppleSignToken(t *testing.T) {
	privPEM, pub := generateES256KeyPEM(t)
	adapter := &appleMapsAdapter{
		teamID:     "TEAM123",
		keyID:      "KEY456",
		privateKey: privPEM,
	}

	now := time.Now()
	signed, err := adapter.signToken(now)
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}

	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			t.Fatalf("unexpected signing method %v", token.Header["alg"])
		}
		return pub, nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse signed token: %v", err)
	}

	if claims.Issuer != "TEAM123" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if parsed.Header["kid"] != "KEY456" {
		t.Fatalf("kid = %v", parsed.Header["kid"])
	}
	if claims.ExpiresAt != now.Add(appleTokenTTL).Unix() {
		t.Fatalf("expiry = %d", claims.ExpiresAt)
	}
}

func TestAppleSignToken_BadKey(t *testing.T) {
	adapter := &appleMapsAdapter{
		teamID:     "TEAM123",
		keyID:      "KEY456",
		privateKey: "not a pem",
	}
	if _, err := adapter.signToken(time.Now()); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestMapApplePlace_PrimaryPhonePreferred(t *testing.T) {
	place := applePlace{DisplayName: "Joe's Pizza"}
	place.PhoneNumbers = []struct {
		Number  string `json:"number"`
		Primary bool   `json:"primary"`
	}{
		{Number: "4705550001", Primary: false},
		{Number: "4705550123", Primary: true},
	}

	data := mapApplePlace(place)
	if data.Phone == nil || *data.Phone != "4705550123" {
		t.Fatalf("phone = %v", data.Phone)
	}
}

func TestMapApplePlace_UnreportedFieldsStayNil(t *testing.T) {
	data := mapApplePlace(applePlace{})
	if data.Name != nil || data.Address != nil || data.Phone != nil || data.Website != nil {
		t.Fatalf("empty place mapped to non-nil fields: %+v", data)
	}
	if data.Hours != nil || data.OperationalStatus != nil {
		t.Fatal("apple never reports hours or operational status here")
	}
}
