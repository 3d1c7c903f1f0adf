// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"

	"github.com/erynoa/core/errkind"
)

// StoreHost is the optional scoped key-value surface a full host can expose
// alongside HostInterface (§4.4): realm- or caller-scoped storage spoken in
// the VM's own Value language. Every method may answer
// errkind.ErrNotSupported; embed UnsupportedStore to get that behavior for
// the whole surface so a minimal host compiles without implementing storage.
type StoreHost interface {
	StoreGet(store, key string) (Value, error)
	StorePut(store, key string, value Value) error
	StoreDelete(store, key string) (bool, error)
	StoreGetNested(store, key, path string) (Value, error)
	StorePutNested(store, key, path string, value Value) error
	StoreAppendList(store, key string, value Value) error
	StoreListKeys(store string) ([]string, error)
	StoreCount(store string) (int, error)
	StoreExists(store string) (bool, error)
	StoreQueryByIndex(store, index, indexValue string) ([]Value, error)
}

// UnsupportedStore answers errkind.ErrNotSupported for every StoreHost
// method.
type UnsupportedStore struct{}

func notSupported(op string) error {
	return fmt.Errorf("%w: %s", errkind.ErrNotSupported, op)
}

func (UnsupportedStore) StoreGet(string, string) (Value, error) {
	return Null(), notSupported("store_get")
}

func (UnsupportedStore) StorePut(string, string, Value) error {
	return notSupported("store_put")
}

func (UnsupportedStore) StoreDelete(string, string) (bool, error) {
	return false, notSupported("store_delete")
}

func (UnsupportedStore) StoreGetNested(string, string, string) (Value, error) {
	return Null(), notSupported("store_get_nested")
}

func (UnsupportedStore) StorePutNested(string, string, string, Value) error {
	return notSupported("store_put_nested")
}

func (UnsupportedStore) StoreAppendList(string, string, Value) error {
	return notSupported("store_append_list")
}

func (UnsupportedStore) StoreListKeys(string) ([]string, error) {
	return nil, notSupported("store_list_keys")
}

func (UnsupportedStore) StoreCount(string) (int, error) {
	return 0, notSupported("store_count")
}

func (UnsupportedStore) StoreExists(string) (bool, error) {
	return false, notSupported("store_exists")
}

func (UnsupportedStore) StoreQueryByIndex(string, string, string) ([]Value, error) {
	return nil, notSupported("store_query_by_index")
}

// StoreOf projects a host's StoreHost surface, falling back to
// UnsupportedStore when the host does not implement one.
func StoreOf(h HostInterface) StoreHost {
	if s, ok := h.(StoreHost); ok {
		return s
	}
	return UnsupportedStore{}
}
