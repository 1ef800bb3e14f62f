package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
)

func TestPendingPhraseRequiresParkedMnemonic(t *testing.T) {
	sess := session.NewManager(storage.NewMemoryStore(), session.Config{
		UnlockPolicy:  session.PolicyPIN,
		CheckInterval: time.Hour,
	})
	t.Cleanup(sess.Close)
	a := &app{session: sess}

	_, err := pendingPhrase(a)
	assert.Error(t, err, "uninitialized vault has nothing to confirm")

	_, err = sess.Initialize("123456", "123456")
	require.NoError(t, err)

	phrase, err := pendingPhrase(a)
	require.NoError(t, err)
	assert.NotEmpty(t, phrase)

	require.NoError(t, sess.AcknowledgeMnemonic())
	_, err = pendingPhrase(a)
	assert.Error(t, err, "acknowledged phrase must not be prompted again")
}
