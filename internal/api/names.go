package api

import (
	"errors"
	"strings"

	"github.com/DenJur/olingo-jpa-processor-v4/internal/edm"
)

// lookupEntity принимает FQN, внешнее имя или имя набора сущностей.
// Точное совпадение важнее регистронезависимого; неоднозначное имя не находится.
func (s *Server) lookupEntity(name string) (*edm.EntityType, error) {
	name = strings.TrimSpace(name)
	et, err := s.schema.EntityType(name)
	if err == nil {
		return visible(et, name)
	}
	var me *edm.ModelError
	if !errors.As(err, &me) || me.Key != edm.KeyTypeNotFound {
		return nil, err
	}

	var found *edm.EntityType
	for _, cand := range s.schema.EntityTypes() {
		if strings.EqualFold(cand.Name(), name) ||
			strings.EqualFold(cand.ExternalName(), name) ||
			strings.EqualFold(cand.EntitySetName(), name) {
			if found != nil && found != cand {
				return nil, err
			}
			found = cand
		}
	}
	if found == nil {
		return nil, err
	}
	return visible(found, name)
}

// игнорируемая сущность в схему не попадает, значит и здесь её нет
func visible(et *edm.EntityType, name string) (*edm.EntityType, error) {
	if et.Ignored() {
		return nil, &edm.ModelError{Key: edm.KeyTypeNotFound, Type: name}
	}
	return et, nil
}
