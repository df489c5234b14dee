// Package objstore maps protocol object IDs to the objects that own
// them.
package objstore

import (
	"deedles.dev/wlgl/wire"
)

// Store allocates object IDs from a starting value and keeps track of
// live objects. Allocated IDs are never reused. It is not safe for
// concurrent use.
type Store struct {
	objects map[uint32]wire.Object
	nextID  uint32
}

func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

// Add registers obj. If obj does not have an ID yet it is assigned
// the next free one.
func (s *Store) Add(obj wire.Object) {
	id := obj.ID()
	if id == 0 {
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	s.objects[id] = obj
}

func (s *Store) Get(id uint32) wire.Object {
	return s.objects[id]
}

// Delete removes the object with the given ID and notifies it.
func (s *Store) Delete(id uint32) {
	obj := s.objects[id]
	delete(s.objects, id)
	if obj != nil {
		obj.Delete()
	}
}

// Len returns the number of live objects.
func (s *Store) Len() int {
	return len(s.objects)
}

// Dispatch routes msg to the object that it was sent to.
func (s *Store) Dispatch(msg *wire.MessageBuffer) (wire.Object, error) {
	obj := s.objects[msg.Sender()]
	if obj == nil {
		return nil, wire.UnknownSenderIDError{Sender: msg.Sender(), Op: msg.Op()}
	}
	return obj, obj.Dispatch(msg)
}
