package repo

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educare/track_backend/pkg/reqctx"
)

func TestStampRequest(t *testing.T) {
	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{
		RequestID: "req-7",
		ClientIP:  "10.0.0.9",
		UserAgent: "educare-terminal",
	})

	out := stampRequest(ctx, []byte(`{"status":"late"}`))
	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "late", got["status"])
	assert.Equal(t, map[string]any{"id": "req-7", "ip": "10.0.0.9", "user_agent": "educare-terminal"}, got["request"])

	assert.JSONEq(t, `{"request":{"id":"req-7","ip":"10.0.0.9","user_agent":"educare-terminal"}}`, string(stampRequest(ctx, []byte(`null`))))
	assert.Equal(t, `["a"]`, string(stampRequest(ctx, []byte(`["a"]`))), "non-object details are untouched")
	assert.Equal(t, `{"x":1}`, string(stampRequest(context.Background(), []byte(`{"x":1}`))), "no request, no stamp")
}
