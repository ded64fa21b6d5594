package pub

import (
	"context"
	"easyprofile/internal/ports"
	"easyprofile/internal/profile"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// ChangeEvent is the message body published for every pushed profile value.
type ChangeEvent struct {
	ProfileID string `json:"profileId"`
	profile.Change
	At time.Time `json:"at"`
}

// Forwarder publishes each change a profile pushes to a topic. Publishing happens inline
// with the notification; failures are logged and never reach the writer.
type Forwarder struct {
	pub       ports.Publisher
	arn       string
	profileID string
	now       func() time.Time
}

func NewForwarder(pub ports.Publisher, arn, profileID string) *Forwarder {
	return &Forwarder{pub: pub, arn: arn, profileID: profileID, now: time.Now}
}

// Listener returns a profile listener that forwards every change it receives.
func (f *Forwarder) Listener() *profile.Listener {
	return profile.NewListener("forwarder:"+f.arn, profile.HandleAny(f.forward))
}

func (f *Forwarder) forward(ch profile.Change) {
	b, err := json.Marshal(ChangeEvent{ProfileID: f.profileID, Change: ch, At: f.now().UTC()})
	if err != nil {
		log.WithError(err).WithField("category", ch.Category).Error("failed to encode change")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := f.pub.PublishRaw(ctx, f.arn, b); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"category": ch.Category,
			"entry":    ch.Name,
			"topic":    f.arn,
		}).Warn("failed to forward change")
	}
}
