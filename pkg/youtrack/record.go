package youtrack

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Record is one attribute-bearing XML element as returned by the tracker,
// e.g. a single <fileUrl .../> node.
type Record struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

// Attr returns the value of the named attribute and whether it was present.
func (r Record) Attr(name string) (string, bool) {
	for _, attr := range r.Attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// recordList is the container element wrapping a list of records.
type recordList struct {
	XMLName xml.Name
	Records []Record `xml:",any"`
}

// ParseRecords decodes the children of the document's root element.
func ParseRecords(r io.Reader) ([]Record, error) {
	var list recordList
	if err := xml.NewDecoder(r).Decode(&list); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return list.Records, nil
}

// ParseAttachments decodes a list of attachment records.
func ParseAttachments(r io.Reader) ([]Attachment, error) {
	records, err := ParseRecords(r)
	if err != nil {
		return nil, err
	}

	attachments := make([]Attachment, 0, len(records))
	for _, record := range records {
		attachments = append(attachments, NewAttachmentFromRecord(record))
	}
	return attachments, nil
}
