package inbox

import "github.com/vedran77/fixly/pkg/api"

// PlaceholderName is shown when a conversation partner cannot be resolved.
const PlaceholderName = "User"

// ResolveOtherParty returns the participant of conv that is not selfID.
//
// An explicit user on the conversation wins. Otherwise the last message is
// used: when both ends are populated the end that is not selfID is
// returned, else the first non-empty end, preferring one that is not
// selfID. The result is nil only when the record carries no user data at
// all.
func ResolveOtherParty(conv api.Conversation, selfID string) *api.Identity {
	if conv.User != nil {
		return conv.User
	}

	lm := conv.LastMessage
	if lm == nil {
		return nil
	}

	sender, receiver := lm.SenderID, lm.ReceiverID
	if sender.IsPopulated() && receiver.IsPopulated() {
		switch selfID {
		case sender.ID():
			return receiver.Identity()
		case receiver.ID():
			return sender.Identity()
		}
	}

	var fallback *api.Identity
	for _, ref := range []api.Ref{sender, receiver} {
		ident := identityOf(ref)
		if ident == nil {
			continue
		}
		if selfID == "" || string(ident.ID) != selfID {
			return ident
		}
		if fallback == nil {
			fallback = ident
		}
	}
	return fallback
}

func identityOf(ref api.Ref) *api.Identity {
	if ref.IsZero() {
		return nil
	}
	if ident := ref.Identity(); ident != nil {
		return ident
	}
	return &api.Identity{ID: api.ID(ref.ID())}
}

// DisplayName is the label for ident, falling back to PlaceholderName.
func DisplayName(ident *api.Identity) string {
	if ident == nil || ident.Name == "" {
		return PlaceholderName
	}
	return ident.Name
}

// otherPartyID is the resolved partner id of conv, or "".
func otherPartyID(conv api.Conversation, selfID string) string {
	if ident := ResolveOtherParty(conv, selfID); ident != nil {
		return string(ident.ID)
	}
	return ""
}
