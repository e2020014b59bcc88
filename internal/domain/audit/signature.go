package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

type signaturePayload struct {
	AuditID    string `json:"auditId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
	ActorRole  string `json:"actorRole,omitempty"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

func buildSignaturePayload(log *Log) signaturePayload {
	return signaturePayload{
		AuditID:    log.AuditID.String(),
		EntityType: string(log.EntityType),
		EntityID:   log.EntityID,
		Action:     string(log.Action),
		Actor:      log.Actor,
		ActorRole:  log.ActorRole,
		Reason:     log.Reason,
		CreatedAt:  log.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Sign computes the HMAC-SHA256 signature of a log record.
func Sign(log *Log, key []byte) (string, error) {
	if log == nil {
		return "", errors.New("audit log is required")
	}
	if len(key) == 0 {
		return "", errors.New("signing key is required")
	}
	data, err := json.Marshal(buildSignaturePayload(log))
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks a log record's signature.
func Verify(log *Log, key []byte) (bool, error) {
	if log == nil || log.Signature == nil {
		return false, nil
	}
	expected, err := Sign(log, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(*log.Signature)), nil
}
