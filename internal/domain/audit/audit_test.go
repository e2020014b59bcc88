package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLog(t *testing.T) {
	log, err := NewLog(&Entry{
		EntityType: EntityTypeLot,
		EntityID:   "lot-1",
		Action:     ActionTransition,
		Actor:      "auctioneer:maria",
		ActorRole:  "AUCTIONEER",
		Reason:     "WAITING -> PROPOSALS_OPENED",
	})
	require.NoError(t, err)
	assert.Equal(t, EntityTypeLot, log.EntityType)
	assert.Equal(t, "auctioneer:maria", log.Actor)
	assert.False(t, log.CreatedAt.IsZero())
	assert.Nil(t, log.Signature)

	_, err = NewLog(nil)
	assert.Error(t, err)
	_, err = NewLog(&Entry{EntityType: EntityTypeLot})
	assert.Error(t, err)

	anon, err := NewLog(&Entry{EntityType: EntityTypeBid, EntityID: "b1", Action: ActionUpdate})
	require.NoError(t, err)
	assert.Equal(t, "system", anon.Actor)
}

func TestSignAndVerify(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	log, err := NewLog(&Entry{
		EntityType: EntityTypeResource,
		EntityID:   "r1",
		Action:     ActionJudge,
		Actor:      "auctioneer:maria",
		Reason:     "recurso improcedente",
	})
	require.NoError(t, err)

	sig, err := Sign(log, key)
	require.NoError(t, err)
	log.Signature = &sig

	ok, err := Verify(log, key)
	require.NoError(t, err)
	assert.True(t, ok)

	// Tampering breaks the signature.
	log.Reason = "recurso procedente"
	ok, err = Verify(log, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Sign(log, nil)
	assert.Error(t, err)
	ok, err = Verify(&Log{}, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
