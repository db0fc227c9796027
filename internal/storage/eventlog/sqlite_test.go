package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xHustling/ERC721-Drops/internal/core/amount"
	"github.com/0xHustling/ERC721-Drops/internal/core/drop"
)

func openTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	journal, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	require.NoError(t, journal.Append(ctx, "Sale", []byte(`{"quantity":1}`)))
	require.NoError(t, journal.Append(ctx, "Sale", []byte(`{"quantity":2}`)))
	require.NoError(t, journal.Append(ctx, "FundsWithdrawn", []byte(`{"amount":30}`)))

	records, err := journal.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "FundsWithdrawn", records[0].Name)
	assert.Equal(t, "Sale", records[1].Name)
	assert.JSONEq(t, `{"quantity":2}`, string(records[1].Payload))
	assert.False(t, records[0].At.IsZero())
}

func TestCountByName(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, journal.Append(ctx, "Sale", []byte(`{}`)))
	}
	require.NoError(t, journal.Append(ctx, "FundsReceived", []byte(`{}`)))

	n, err := journal.CountByName(ctx, "Sale")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = journal.CountByName(ctx, "OpenMintFinalized")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLargePayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	// Above the compression threshold the payload is stored lz4-framed
	// and must come back byte-identical.
	payload, err := json.Marshal(map[string]string{
		"description": string(bytes.Repeat([]byte("long description "), 100)),
	})
	require.NoError(t, err)
	require.Greater(t, len(payload), compressThreshold)

	require.NoError(t, journal.Append(ctx, "CollectionMetaChanged", payload))

	records, err := journal.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, json.RawMessage(payload), records[0].Payload)
}

func TestSinkJournalsEngineEvents(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)
	sink := NewSink(journal)

	sink.Publish(drop.SaleEvent{
		Quantity:      2,
		PricePerToken: amount.New(10),
		FirstTokenID:  1,
	})

	records, err := journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sale", records[0].Name)

	var ev drop.SaleEvent
	require.NoError(t, json.Unmarshal(records[0].Payload, &ev))
	assert.Equal(t, uint64(2), ev.Quantity)
	assert.Equal(t, amount.New(10), ev.PricePerToken)
}
