// Package record defines the exposure-site Record value type and set helpers.
package record

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// CasualContact is the contact status that marks a casual contact site.
const CasualContact = "Casual"

// Record is one exposure-site entry. It is comparable, so == and map keys
// give structural equality over all five fields.
type Record struct {
	Date          string `json:"date"`
	Time          string `json:"time"`
	Campus        string `json:"campus"`
	Location      string `json:"location"`
	ContactStatus string `json:"contact_status"`
}

// New builds a Record from the five table cell values.
func New(date, time, campus, location, contactStatus string) Record {
	return Record{
		Date:          date,
		Time:          time,
		Campus:        campus,
		Location:      location,
		ContactStatus: contactStatus,
	}
}

// IsCasual reports whether the record is a casual contact site.
func (r Record) IsCasual() bool {
	return r.ContactStatus == CasualContact
}

// String renders the notification text for the record.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString("Exposure site on *")
	b.WriteString(r.Date)
	b.WriteString("*, at *")
	b.WriteString(r.Time)
	b.WriteString("*.\nCampus: **")
	b.WriteString(r.Campus)
	b.WriteString("**, Location: **")
	b.WriteString(r.Location)
	b.WriteString("**\n")

	if r.IsCasual() {
		b.WriteString("Casual Contact Site")
	} else {
		b.WriteString("***Contact Status: ")
		b.WriteString(r.ContactStatus)
		b.WriteString("***")
	}

	return b.String()
}

// Hash returns the hex-encoded SHA-256 of the five fields. Each field is
// length-prefixed so that no two distinct records share an encoding.
func (r Record) Hash() string {
	h := sha256.New()
	var size [8]byte

	for _, field := range r.fields() {
		binary.BigEndian.PutUint64(size[:], uint64(len(field)))
		_, _ = h.Write(size[:])
		_, _ = h.Write([]byte(field))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func (r Record) fields() [5]string {
	return [5]string{r.Date, r.Time, r.Campus, r.Location, r.ContactStatus}
}
