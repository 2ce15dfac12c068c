package types

import "encoding/json"

// Message is the trigger payload posted by the upstream application server
// and, with the class tags set, the body fanned out to connected clients.
// Attachments and created_at are passed through untouched.
type Message struct {
	Id                 int64           `json:"id,omitempty"`
	SenderId           int             `json:"sender_id"`
	ReceiverId         int             `json:"receiver_id,omitempty"`
	GroupId            string          `json:"group_id,omitempty"`
	StreamId           string          `json:"stream_id,omitempty"`
	Message            string          `json:"message"`
	Attachments        json.RawMessage `json:"attachments,omitempty"`
	CreatedAt          string          `json:"created_at,omitempty"`
	SenderName         string          `json:"sender_name,omitempty"`
	SenderProfileImage string          `json:"sender_profile_image,omitempty"`
	IsGroup            bool            `json:"isGroup,omitempty"`
	IsStream           bool            `json:"isStream,omitempty"`
}
