package natsadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

type fakeMsg struct{ acked, naked, termed int }

func (m *fakeMsg) Ack(...nats.AckOpt) error  { m.acked++; return nil }
func (m *fakeMsg) Nak(...nats.AckOpt) error  { m.naked++; return nil }
func (m *fakeMsg) Term(...nats.AckOpt) error { m.termed++; return nil }

func TestSettle(t *testing.T) {
	tests := []struct {
		name               string
		err                error
		acked, naked, term int
	}{
		{"success", nil, 1, 0, 0},
		{"transient", errors.New("db down"), 0, 1, 0},
		{"bad coordinate", &domain.CoordinateError{Day: 1, Stop: 1, Raw: "x"}, 0, 0, 1},
		{"unknown mode", domain.ErrUnknownTransportMode, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMsg{}
			require.NoError(t, Settle(m, tt.err))
			assert.Equal(t, tt.acked, m.acked)
			assert.Equal(t, tt.naked, m.naked)
			assert.Equal(t, tt.term, m.termed)
		})
	}
}

func TestDecodeAndHandle(t *testing.T) {
	var got *domain.FootprintRequest
	handler := func(ctx context.Context, req *domain.FootprintRequest) error {
		got = req
		return nil
	}

	err := decodeAndHandle(context.Background(), []byte(`{"requestId":"r1","source":"cli","selectedMode":"bus","itinerary":{"days":[]}}`), handler)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.RequestID)
	assert.Equal(t, "bus", got.SelectedMode)

	err = decodeAndHandle(context.Background(), []byte(`{not json`), handler)
	assert.True(t, domain.IsInvalidInput(err), "undecodable payloads must not be retried")
}

func TestEstimatedSubject(t *testing.T) {
	assert.Equal(t, "footprint.estimated.web", EstimatedSubject("web"))
}
