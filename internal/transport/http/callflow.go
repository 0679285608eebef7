package http

import (
	"encoding/xml"
	"fmt"
)

// Call-control instructions returned to the voice provider. The vocabulary is
// the provider's own two-element XML call flow: Transfer bridges the call,
// Say speaks a message to the caller.

type transferStep struct {
	XMLName     xml.Name `xml:"Transfer"`
	Destination string   `xml:"destination,attr"`
	Mask        bool     `xml:"mask,attr"`
}

type sayStep struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr"`
	Voice    string   `xml:"voice,attr"`
	Text     string   `xml:",chardata"`
}

func renderTransfer(destination string, mask bool) ([]byte, error) {
	return renderCallFlow(transferStep{Destination: destination, Mask: mask})
}

func renderSay(text string) ([]byte, error) {
	return renderCallFlow(sayStep{Language: "en-GB", Voice: "female", Text: text})
}

func renderCallFlow(step any) ([]byte, error) {
	body, err := xml.Marshal(step)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal call flow step: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
