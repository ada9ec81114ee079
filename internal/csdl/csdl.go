// Package csdl содержит неизменяемые дескрипторы схемы (Entity Data Model),
// которые отдаются слою сериализации.
package csdl

import "encoding/xml"

type Schema struct {
	XMLName         xml.Name         `xml:"Schema" json:"-"`
	Namespace       string           `xml:"Namespace,attr" json:"namespace"`
	EntityTypes     []*EntityType    `xml:"EntityType" json:"entityTypes,omitempty"`
	ComplexTypes    []*ComplexType   `xml:"ComplexType" json:"complexTypes,omitempty"`
	EntityContainer *EntityContainer `xml:"EntityContainer,omitempty" json:"entityContainer,omitempty"`
}

type EntityContainer struct {
	Name       string       `xml:"Name,attr" json:"name"`
	EntitySets []*EntitySet `xml:"EntitySet" json:"entitySets,omitempty"`
}

type EntitySet struct {
	Name       string `xml:"Name,attr" json:"name"`
	EntityType string `xml:"EntityType,attr" json:"entityType"`
}

type EntityType struct {
	Name                 string                `xml:"Name,attr" json:"name"`
	BaseType             string                `xml:"BaseType,attr,omitempty" json:"baseType,omitempty"`
	Abstract             bool                  `xml:"Abstract,attr,omitempty" json:"abstract,omitempty"`
	HasStream            bool                  `xml:"HasStream,attr,omitempty" json:"hasStream,omitempty"`
	Key                  []PropertyRef         `xml:"Key>PropertyRef" json:"key,omitempty"`
	Properties           []*Property           `xml:"Property" json:"properties,omitempty"`
	NavigationProperties []*NavigationProperty `xml:"NavigationProperty" json:"navigationProperties,omitempty"`
}

type ComplexType struct {
	Name                 string                `xml:"Name,attr" json:"name"`
	BaseType             string                `xml:"BaseType,attr,omitempty" json:"baseType,omitempty"`
	Abstract             bool                  `xml:"Abstract,attr,omitempty" json:"abstract,omitempty"`
	Properties           []*Property           `xml:"Property" json:"properties,omitempty"`
	NavigationProperties []*NavigationProperty `xml:"NavigationProperty" json:"navigationProperties,omitempty"`
}

type PropertyRef struct {
	Name  string `xml:"Name,attr" json:"name"`
	Alias string `xml:"Alias,attr,omitempty" json:"alias,omitempty"`
}

type Property struct {
	Name      string `xml:"Name,attr" json:"name"`
	Type      string `xml:"Type,attr" json:"type"`
	Nullable  *bool  `xml:"Nullable,attr,omitempty" json:"nullable,omitempty"`
	MaxLength int    `xml:"MaxLength,attr,omitempty" json:"maxLength,omitempty"`
	Precision int    `xml:"Precision,attr,omitempty" json:"precision,omitempty"`
	Scale     int    `xml:"Scale,attr,omitempty" json:"scale,omitempty"`
}

type NavigationProperty struct {
	Name     string `xml:"Name,attr" json:"name"`
	Type     string `xml:"Type,attr" json:"type"`
	Nullable *bool  `xml:"Nullable,attr,omitempty" json:"nullable,omitempty"`
	Partner  string `xml:"Partner,attr,omitempty" json:"partner,omitempty"`
}

// CollectionOf оборачивает имя типа в Collection(...).
func CollectionOf(typeName string) string {
	return "Collection(" + typeName + ")"
}
