package signing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/firmador-ais/internal/domain/signing"
	"github.com/jhoicas/firmador-ais/pkg/ais"
)

func TestPollingSession_Defaults(t *testing.T) {
	s := signing.NewPollingSession("r", 0, -1)
	assert.Equal(t, 18*time.Second, s.Interval)
	assert.Equal(t, 10, s.MaxRetries)
	assert.Equal(t, signing.StatePending, s.State)
}

func TestPollingSession_PendingHastaTimeout(t *testing.T) {
	s := signing.NewPollingSession("r", time.Millisecond, 2)

	require.Equal(t, signing.StatePending, s.Advance(ais.ResultMajorPending))
	require.True(t, s.Retry())
	require.Equal(t, signing.StatePending, s.Advance(ais.ResultMajorPending))
	require.True(t, s.Retry())
	assert.Equal(t, signing.StateTimeout, s.Advance(ais.ResultMajorPending), "retries_used == max → TIMEOUT")
	assert.False(t, s.Retry())
}

func TestPollingSession_Terminales(t *testing.T) {
	s := signing.NewPollingSession("r", time.Millisecond, 5)
	assert.Equal(t, signing.StateSuccess, s.Advance(ais.ResultMajorSuccess))
	assert.Equal(t, signing.StateSuccess, s.Advance(ais.ResultMajorPending), "nunca vuelve a PENDING")

	s = signing.NewPollingSession("r", time.Millisecond, 5)
	assert.Equal(t, signing.StateFailure, s.Advance(ais.ResultMajorRequester))
	s.Abort(signing.StateTimeout)
	assert.Equal(t, signing.StateFailure, s.State, "Abort no sobrescribe un estado terminal")

	s = signing.NewPollingSession("r", time.Millisecond, 5)
	s.Abort(signing.StateTimeout)
	assert.Equal(t, signing.StateTimeout, s.State)
}

func TestPollingSession_SinReintentos(t *testing.T) {
	s := signing.NewPollingSession("r", time.Millisecond, 0)
	assert.Equal(t, signing.StateTimeout, s.Advance(ais.ResultMajorPending))
}

func TestNewRequestID_Formato(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 7, 2, 45*int(time.Millisecond), time.UTC)
	id := signing.NewRequestID(now)
	assert.Regexp(t, `^05\.03\.2024 09:07:02:0045\d{1,3}$`, id)
}
