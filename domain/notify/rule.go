package notify

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Channel string

const (
	ChannelInApp   Channel = "in_app"
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelWebPush Channel = "web_push"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelSMS, ChannelWebPush:
		return true
	}
	return false
}

// NotificationRule describes who is notified, and how, when a transition is applied.
// Templates may reference {{variable}} placeholders, see Render.
type NotificationRule struct {
	Recipients    []RecipientSpec `json:"recipients"`
	TitleTemplate string          `json:"title_template"`
	BodyTemplate  string          `json:"body_template"`
	Priority      Priority        `json:"priority,omitempty"`
	Channels      []Channel       `json:"channels,omitempty"`
}

// Normalized returns a copy with default priority (normal) and channels (in_app) applied,
// duplicate channels removed.
func (r NotificationRule) Normalized() NotificationRule {
	n := r
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if len(r.Channels) == 0 {
		n.Channels = []Channel{ChannelInApp}
	} else {
		seen := map[Channel]bool{}
		n.Channels = make([]Channel, 0, len(r.Channels))
		for _, c := range r.Channels {
			if seen[c] {
				continue
			}
			seen[c] = true
			n.Channels = append(n.Channels, c)
		}
	}
	if r.Recipients != nil {
		n.Recipients = append([]RecipientSpec{}, r.Recipients...)
	}
	return n
}
