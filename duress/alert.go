package duress

import (
	"fmt"

	builditcrypto "github.com/buildit-network/buildit/crypto"
	"github.com/buildit-network/buildit/internal/logger"
	"github.com/buildit-network/buildit/nip17"
	"github.com/buildit-network/buildit/nostr"
)

// DefaultAlertMessage is the plaintext sent when no custom message is
// configured. Recipients learn its meaning out-of-band; on the wire the alert
// is an ordinary wrapped message.
const DefaultAlertMessage = "DURESS ACTIVATED"

// AlertConfig configures silent alerts to trusted contacts.
type AlertConfig struct {
	// TrustedContactPubKeys lists the recipients, one wrap each.
	TrustedContactPubKeys []string
	// CustomMessage overrides DefaultAlertMessage when non-empty.
	CustomMessage string
}

// CreateAlert builds one silent alert to a trusted contact using the
// standard three-layer wrap; a relay observer cannot distinguish it from any
// other private message.
func CreateAlert(senderPrivateKey []byte, recipientPubKey string, createdAt int64, customMessage string) (*nostr.Event, error) {
	message := customMessage
	if message == "" {
		message = DefaultAlertMessage
	}

	wrapped, err := nip17.Wrap(senderPrivateKey, recipientPubKey, message, createdAt)
	if err != nil {
		return nil, fmt.Errorf("duress alert: %w", builditcrypto.ErrDuressAlertFailed)
	}
	return wrapped, nil
}

// CreateAlerts sends the alert to every configured trusted contact. Each wrap
// uses its own ephemeral key, so the alerts are unlinkable on the wire.
func CreateAlerts(senderPrivateKey []byte, config AlertConfig, createdAt int64) ([]*nostr.Event, error) {
	alerts := make([]*nostr.Event, 0, len(config.TrustedContactPubKeys))
	for _, pubKey := range config.TrustedContactPubKeys {
		alert, err := CreateAlert(senderPrivateKey, pubKey, createdAt, config.CustomMessage)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	logger.Default().Info("duress alerts prepared", logger.Int("recipients", len(alerts)))
	return alerts, nil
}
