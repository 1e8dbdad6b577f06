package models

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelVoice    Channel = "voice"
)

// Channels is the closed set of delivery channels. Dispatch iterates this
// set; adding a channel means adding a constant here plus one Notifier
// implementation, not a new branch at every call site.
var Channels = []Channel{ChannelSMS, ChannelEmail, ChannelPush, ChannelWhatsApp, ChannelVoice}

func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}
