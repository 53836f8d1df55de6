package stripeclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestConstructEventValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)
	now := time.Now()
	header := signPayload(t, payload, testWebhookSecret, now)

	event, err := constructEventAt(payload, header, testWebhookSecret, now, DefaultTolerance)
	if err != nil {
		t.Fatalf("constructEventAt() error = %v", err)
	}
	if event.Type != "checkout.session.completed" {
		t.Fatalf("expected event type checkout.session.completed, got %q", event.Type)
	}
	if event.ID != "evt_1" {
		t.Fatalf("expected event id evt_1, got %q", event.ID)
	}
}

func TestConstructEventWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()
	header := signPayload(t, payload, "whsec_other_secret", now)

	_, err := constructEventAt(payload, header, testWebhookSecret, now, DefaultTolerance)
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestConstructEventTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()
	header := signPayload(t, payload, testWebhookSecret, now)

	tampered := []byte(`{"id":"evt_1","type":"charge.refunded"}`)
	_, err := constructEventAt(tampered, header, testWebhookSecret, now, DefaultTolerance)
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestConstructEventStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	signedAt := time.Now().Add(-10 * time.Minute)
	header := signPayload(t, payload, testWebhookSecret, signedAt)

	_, err := constructEventAt(payload, header, testWebhookSecret, time.Now(), DefaultTolerance)
	if !errors.Is(err, ErrTimestampTooOld) {
		t.Fatalf("expected ErrTimestampTooOld, got %v", err)
	}
}

func TestConstructEventMalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=123"} {
		_, err := constructEventAt(payload, header, testWebhookSecret, time.Now(), DefaultTolerance)
		if !errors.Is(err, ErrInvalidSignatureHeader) {
			t.Fatalf("header %q: expected ErrInvalidSignatureHeader, got %v", header, err)
		}
	}
}
