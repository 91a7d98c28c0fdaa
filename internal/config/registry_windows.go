//go:build windows

package config

import (
	"golang.org/x/sys/windows/registry"
)

// RegistryKey узел реестра Windows, открытый только на чтение.
type RegistryKey struct {
	k        registry.Key
	borrowed bool
}

// OpenLocalMachine корень HKEY_LOCAL_MACHINE; Close для него ничего не делает.
func OpenLocalMachine() (Key, error) {
	return &RegistryKey{k: registry.LOCAL_MACHINE, borrowed: true}, nil
}

func (r *RegistryKey) OpenSubKey(name string) (Key, bool) {
	k, err := registry.OpenKey(r.k, name, registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, false
	}
	return &RegistryKey{k: k}, true
}

func (r *RegistryKey) GetValueNames() []string {
	names, err := r.k.ReadValueNames(-1)
	if err != nil {
		return nil
	}
	return names
}

func (r *RegistryKey) GetValue(name string) interface{} {
	switch r.GetValueKind(name) {
	case KindString:
		v, _, err := r.k.GetStringValue(name)
		if err != nil {
			return nil
		}
		return v
	case KindDWord, KindQWord:
		v, _, err := r.k.GetIntegerValue(name)
		if err != nil {
			return nil
		}
		return v
	case KindMultiString:
		v, _, err := r.k.GetStringsValue(name)
		if err != nil {
			return nil
		}
		return v
	case KindBinary:
		v, _, err := r.k.GetBinaryValue(name)
		if err != nil {
			return nil
		}
		return v
	}
	return nil
}

func (r *RegistryKey) GetValueKind(name string) ValueKind {
	_, valtype, err := r.k.GetValue(name, nil)
	if err != nil {
		return KindUnknown
	}
	return kindOf(valtype)
}

// kindOf REG_EXPAND_SZ не считается строкой: Server должен быть REG_SZ.
func kindOf(valtype uint32) ValueKind {
	switch valtype {
	case registry.SZ:
		return KindString
	case registry.DWORD:
		return KindDWord
	case registry.QWORD:
		return KindQWord
	case registry.BINARY:
		return KindBinary
	case registry.MULTI_SZ:
		return KindMultiString
	}
	return KindUnknown
}

func (r *RegistryKey) Close() error {
	if r.borrowed {
		return nil
	}
	return r.k.Close()
}
