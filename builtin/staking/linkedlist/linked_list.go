// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"math/big"

	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

// LinkedList is a persistent doubly linked list of addresses.
type LinkedList struct {
	head  *storage.Address
	tail  *storage.Address
	count *storage.Uint256
	next  *storage.Mapping[veldt.Address, veldt.Address]
	prev  *storage.Mapping[veldt.Address, veldt.Address]
}

// NewLinkedList creates a linked list rooted at the given slots.
func NewLinkedList(sctx *storage.Context, headPos, tailPos, countPos veldt.Bytes32) *LinkedList {
	return &LinkedList{
		head:  storage.NewAddress(sctx, headPos),
		tail:  storage.NewAddress(sctx, tailPos),
		count: storage.NewUint256(sctx, countPos),
		next:  storage.NewMapping[veldt.Address, veldt.Address](sctx, headPos),
		prev:  storage.NewMapping[veldt.Address, veldt.Address](sctx, tailPos),
	}
}

// Add appends an address to the end of the list, maintaining insertion order.
func (l *LinkedList) Add(address veldt.Address) error {
	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}

	if oldTail.IsZero() {
		// the list is currently empty, set this entry to head & tail
		l.head.Set(&address)
		l.tail.Set(&address)
		return l.count.Add(big.NewInt(1))
	}

	if err := l.next.Set(oldTail, address); err != nil {
		return err
	}
	if err := l.prev.Set(address, oldTail); err != nil {
		return err
	}
	l.tail.Set(&address)

	return l.count.Add(big.NewInt(1))
}

// Remove extracts an address from anywhere in the list, reconnecting adjacent
// entries and clearing the removed entry's pointers.
func (l *LinkedList) Remove(address veldt.Address) error {
	if address.IsZero() {
		return nil
	}

	prev, err := l.prev.Get(address)
	if err != nil {
		return err
	}
	next, err := l.next.Get(address)
	if err != nil {
		return err
	}

	isHead, err := l.isHead(address)
	if err != nil {
		return err
	}
	if prev.IsZero() && !isHead {
		return nil // not in list
	}

	if !prev.IsZero() {
		if err := l.next.Set(prev, next); err != nil {
			return err
		}
	} else {
		l.head.Set(&next)
	}

	if !next.IsZero() {
		if err := l.prev.Set(next, prev); err != nil {
			return err
		}
	} else {
		l.tail.Set(&prev)
	}

	if err := l.next.Set(address, veldt.Address{}); err != nil {
		return err
	}
	if err := l.prev.Set(address, veldt.Address{}); err != nil {
		return err
	}

	return l.count.Sub(big.NewInt(1))
}

// Head returns the first entry, or the zero address for an empty list.
func (l *LinkedList) Head() (veldt.Address, error) {
	return l.head.Get()
}

// Len returns the number of entries.
func (l *LinkedList) Len() (*big.Int, error) {
	return l.count.Get()
}

// Contains reports whether the address is in the list.
func (l *LinkedList) Contains(address veldt.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	prev, err := l.prev.Get(address)
	if err != nil {
		return false, err
	}
	if !prev.IsZero() {
		return true, nil
	}
	return l.isHead(address)
}

// Iter walks the list from head to tail, invoking cb for each entry.
func (l *LinkedList) Iter(cb func(veldt.Address) error) error {
	entry, err := l.head.Get()
	if err != nil {
		return err
	}
	for !entry.IsZero() {
		if err := cb(entry); err != nil {
			return err
		}
		if entry, err = l.next.Get(entry); err != nil {
			return err
		}
	}
	return nil
}

func (l *LinkedList) isHead(address veldt.Address) (bool, error) {
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	return head == address, nil
}
