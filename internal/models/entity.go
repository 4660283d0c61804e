package models

import "strings"

// blankMarker is what the pivot export writes into empty cells
const blankMarker = "(Leer)"

// Entity is the shared base for payers, clients and employees. Zip and
// city may arrive either as separate fields or as one combined string;
// SyncZipCity keeps the two representations consistent.
type Entity struct {
	Name    string
	Name2   string
	Street  string
	Zip     string
	City    string
	ZipCity string
	Key     string
}

// SyncZipCity reconciles the split and combined address forms. A set
// ZipCity wins and is split on the first space; otherwise ZipCity is
// joined from Zip and City.
func (e *Entity) SyncZipCity() {
	if e.ZipCity != "" {
		parts := strings.SplitN(strings.TrimSpace(e.ZipCity), " ", 2)
		e.Zip = parts[0]
		if len(parts) > 1 {
			e.City = parts[1]
		} else {
			e.City = ""
		}
	} else if e.Zip != "" || e.City != "" {
		e.ZipCity = strings.TrimSpace(e.Zip + " " + e.City)
	}
}

// CleanBlanks clears fields the source export filled with the blank marker
func (e *Entity) CleanBlanks() {
	if e.Name2 == blankMarker {
		e.Name2 = ""
	}
}

// Payer is the billing entity responsible for settling an invoice
type Payer struct {
	Entity
	IBAN string
}

// NewPayer builds a payer and normalizes its address fields
func NewPayer(e Entity, iban string) *Payer {
	p := &Payer{Entity: e, IBAN: iban}
	p.CleanBlanks()
	p.SyncZipCity()
	return p
}

// Client is the service recipient whose activity is billed. PayerID
// links the client to the payer settling their invoices.
type Client struct {
	Entity
	FirstName            string
	LastName             string
	BirthDate            string
	SocialSecurityNumber string
	PayerID              string
}

// NewClient builds a client; the display name defaults to "Last, First"
// when no explicit name is given.
func NewClient(e Entity, firstName, lastName, birthDate, ssn string) *Client {
	c := &Client{
		Entity:               e,
		FirstName:            firstName,
		LastName:             lastName,
		BirthDate:            birthDate,
		SocialSecurityNumber: ssn,
	}
	if c.Name == "" {
		c.Name = strings.Trim(lastName+", "+firstName, ", ")
	}
	c.CleanBlanks()
	c.SyncZipCity()
	return c
}

// Employee is a care worker filling in timesheets
type Employee struct {
	Entity
	FirstName string
	LastName  string
}
