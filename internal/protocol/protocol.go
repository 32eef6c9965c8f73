package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const Version = "1.0"

// Market message types. One semantic purpose per message instance.
const (
	TypeRequestAllItems = "REQUEST_ALL_ITEMS"
	TypeAddOne          = "ADD_ONE"
	TypeRemoveOne       = "REMOVE_ONE"
	TypeSendDefinition  = "SEND_DEFINITION"
	TypePurchasedGrid   = "PURCHASED_GRID"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// DecodeMessage parses a market envelope into its tag-specific struct.
// Each tag carries only its own payload; a populated field foreign to the
// tag fails decoding instead of being silently accepted. The stable json
// field names are the cross-version compatibility contract.
func DecodeMessage(b []byte) (any, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrProtoBadRequest, err)
	}
	var msg any
	switch base.Type {
	case TypeRequestAllItems:
		msg = &RequestAllItemsMsg{}
	case TypeAddOne:
		msg = &AddOneMsg{}
	case TypeRemoveOne:
		msg = &RemoveOneMsg{}
	case TypeSendDefinition:
		msg = &SendDefinitionMsg{}
	case TypePurchasedGrid:
		msg = &PurchasedGridMsg{}
	default:
		return nil, fmt.Errorf("%s: unknown message type %q", ErrProtoBadRequest, base.Type)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", ErrProtoTagPayload, base.Type, err)
	}
	return msg, nil
}

func EncodeMessage(msg any) ([]byte, error) {
	return json.Marshal(msg)
}
