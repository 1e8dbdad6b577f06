package models

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleSupervisor  Role = "supervisor"
	RoleObserver    Role = "observer"
)

type Recipient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Parish    string `json:"parish,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	PushToken string `json:"push_token,omitempty"`
}

// Address returns the channel-specific delivery identifier, or "" if this
// recipient cannot be reached on the channel.
func (r Recipient) Address(c Channel) string {
	switch c {
	case ChannelSMS, ChannelWhatsApp, ChannelVoice:
		return r.Phone
	case ChannelEmail:
		return r.Email
	case ChannelPush:
		return r.PushToken
	}
	return ""
}
