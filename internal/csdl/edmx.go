package csdl

import "encoding/xml"

const (
	edmxNamespace = "http://docs.oasis-open.org/odata/ns/edmx"
	edmNamespace  = "http://docs.oasis-open.org/odata/ns/edm"
	edmxVersion   = "4.0"
)

// Edmx: XML-конверт $metadata-документа.
type Edmx struct {
	XMLName      xml.Name     `xml:"edmx:Edmx"`
	XmlnsEdmx    string       `xml:"xmlns:edmx,attr"`
	Version      string       `xml:"Version,attr"`
	DataServices DataServices `xml:"edmx:DataServices"`
}

type DataServices struct {
	Schemas []xmlSchema `xml:"Schema"`
}

// xmlSchema добавляет к схеме пространство имён CSDL.
type xmlSchema struct {
	Xmlns string `xml:"xmlns,attr"`
	*Schema
}

// Document заворачивает схемы в конверт Edmx версии 4.0.
func Document(schemas ...*Schema) *Edmx {
	doc := &Edmx{XmlnsEdmx: edmxNamespace, Version: edmxVersion}
	for _, s := range schemas {
		doc.DataServices.Schemas = append(doc.DataServices.Schemas, xmlSchema{Xmlns: edmNamespace, Schema: s})
	}
	return doc
}
