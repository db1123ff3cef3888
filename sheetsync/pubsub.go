package sheetsync

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"github.com/gin-gonic/gin"
)

// PubSubPushHandler receives Pub/Sub push deliveries for the sync topic.
// Everything answers 204: malformed envelopes are unrecoverable and must not
// be redelivered, and processing failures are already recorded on the run.
func PubSubPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envBoolDefault("ENABLE_SHEETSYNC_PUSH_ENDPOINT", true) {
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

		var msg config.CargaSyncMessage
		if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
			c.Status(204)
			return
		}
		if msg.CargaId == 0 && msg.RunId == 0 {
			c.Status(204)
			return
		}

		worker, err := NewWorker()
		if err != nil {
			config.LogError(config.GetLogger(), "pubsub.go", "PubSubPushHandler", "NewWorker", msg, err)
			c.Status(204)
			return
		}

		if err := worker.ProcessSyncMessage(c.Request.Context(), msg); err != nil {
			config.LogError(config.GetLogger(), "pubsub.go", "PubSubPushHandler", "ProcessSyncMessage", msg, err)
		}
		c.Status(204)
	}
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
