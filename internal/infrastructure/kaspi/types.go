package kaspi

import "encoding/json"

// The marketplace speaks JSON:API. Only the attributes the reconciliation
// flow reads are modeled; everything else is ignored on decode.

type ordersDocument struct {
	Data     []orderResource    `json:"data"`
	Included []includedResource `json:"included"`
}

type orderDocument struct {
	Data     []orderResource    `json:"data"`
	Included []includedResource `json:"included"`
}

type orderResource struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Attributes    orderAttributes     `json:"attributes"`
	Relationships *orderRelationships `json:"relationships"`
}

type orderAttributes struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	State  string `json:"state"`

	// CreationDate is epoch milliseconds.
	CreationDate int64 `json:"creationDate"`

	TotalPrice   float64 `json:"totalPrice"`
	DeliveryCost float64 `json:"deliveryCost"`
	Express      bool    `json:"express"`

	OriginAddress *originAddress `json:"originAddress"`
	KaspiDelivery *kaspiDelivery `json:"kaspiDelivery"`
}

type originAddress struct {
	City    *cityRef       `json:"city"`
	Address *streetAddress `json:"address"`
}

type cityRef struct {
	Name string `json:"name"`
}

type streetAddress struct {
	StreetName   string `json:"streetName"`
	StreetNumber string `json:"streetNumber"`
	Building     string `json:"building"`
}

type kaspiDelivery struct {
	Waybill string `json:"waybill"`
}

type orderRelationships struct {
	User relationship `json:"user"`
}

type relationship struct {
	Data *resourceIdentifier `json:"data"`
}

type resourceIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type includedResource struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes includedAttributes `json:"attributes"`
}

type includedAttributes struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CellPhone string `json:"cellPhone"`
}

type entriesDocument struct {
	Data []entryResource `json:"data"`
}

type entryResource struct {
	ID         string          `json:"id"`
	Attributes entryAttributes `json:"attributes"`
}

type entryAttributes struct {
	Quantity int         `json:"quantity"`
	Offer    *entryOffer `json:"offer"`
}

type entryOffer struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// statusDocument is the envelope of the status-update response. The remote
// acknowledges the transition by echoing a non-null data member.
type statusDocument struct {
	Data json.RawMessage `json:"data"`
}

type statusUpdateRequest struct {
	Data statusUpdateData `json:"data"`
}

type statusUpdateData struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes statusUpdateAttributes `json:"attributes"`
}

type statusUpdateAttributes struct {
	Status        string `json:"status"`
	NumberOfSpace string `json:"numberOfSpace"`
}
