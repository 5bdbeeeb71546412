package api

import (
	"bytes"
	"encoding/json"
	"time"
)

// ID is an identifier as the backend serialises it. Depending on how a
// record was loaded it arrives as a plain string, as {"$oid": "..."} or as
// a populated object carrying "_id".
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var obj struct {
		OID   string          `json:"$oid"`
		ID    json.RawMessage `json:"_id"`
		Plain string          `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	switch {
	case obj.OID != "":
		*id = ID(obj.OID)
	case len(obj.ID) > 0:
		return id.UnmarshalJSON(obj.ID)
	default:
		*id = ID(obj.Plain)
	}
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Identity is a user as shown in a conversation header.
type Identity struct {
	ID        ID     `json:"_id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// Ref points at a user. The backend sends either the bare id or the
// populated user object; both forms decode into a Ref.
type Ref struct {
	id       ID
	identity *Identity
}

// RefID builds an unpopulated reference.
func RefID(id string) Ref {
	return Ref{id: ID(id)}
}

// RefTo builds a populated reference.
func RefTo(identity Identity) Ref {
	return Ref{id: identity.ID, identity: &identity}
}

// ID returns the referenced user id as a string, populated or not.
func (r Ref) ID() string {
	return string(r.id)
}

// Identity returns the populated user object, or nil for id-only refs.
func (r Ref) Identity() *Identity {
	return r.identity
}

func (r Ref) IsPopulated() bool {
	return r.identity != nil
}

// IsZero reports whether the backend sent neither an id nor a user.
func (r Ref) IsZero() bool {
	return r.id == "" && r.identity == nil
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = Ref{}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	if b[0] != '{' {
		return r.id.UnmarshalJSON(b)
	}

	if err := r.id.UnmarshalJSON(b); err != nil {
		return err
	}

	var ident Identity
	if err := json.Unmarshal(b, &ident); err != nil {
		return err
	}
	// {"$oid": ...} is an id wrapper, not a populated user.
	if ident.ID == "" && ident.Name == "" && ident.AvatarURL == "" {
		return nil
	}
	ident.ID = r.id
	r.identity = &ident
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.identity != nil {
		return json.Marshal(r.identity)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(r.id))
}

type Message struct {
	ID         ID         `json:"_id"`
	SenderID   Ref        `json:"senderId"`
	ReceiverID Ref        `json:"receiverId"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	IsEdited   bool       `json:"isEdited"`
}

// EditedMessage is what the backend confirms after an edit. Both fields
// are optional in the response.
type EditedMessage struct {
	Text      string     `json:"text,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type LastMessage struct {
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	SenderID   Ref       `json:"senderId"`
	ReceiverID Ref       `json:"receiverId"`
}

// Conversation is one row of the inbox.
type Conversation struct {
	User        *Identity    `json:"user,omitempty"`
	LastMessage *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount int          `json:"unreadCount"`
}

type Provider struct {
	ID        ID       `json:"_id"`
	Name      string   `json:"name"`
	AvatarURL string   `json:"avatar,omitempty"`
	Services  []string `json:"services,omitempty"`
	Rating    float64  `json:"rating"`
}

type Session struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}
