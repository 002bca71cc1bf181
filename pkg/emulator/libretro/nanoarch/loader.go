package nanoarch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"
)

/*
#cgo LDFLAGS: -ldl
#include <stdlib.h>
#include <dlfcn.h>
*/
import "C"

func open(file string) unsafe.Pointer {
	cs := C.CString(file)
	defer C.free(unsafe.Pointer(cs))
	return C.dlopen(cs, C.RTLD_LAZY)
}

func loadFunction(handle unsafe.Pointer, name string) unsafe.Pointer {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return C.dlsym(handle, cs)
}

func loadLib(path string) (unsafe.Pointer, error) {
	handle := open(path)
	if handle != nil {
		return handle, nil
	}
	if e := C.dlerror(); e != nil {
		return nil, errors.New(C.GoString(e))
	}
	return nil, errors.New("couldn't load the lib")
}

// loadLibRolling tries every file in the lib folder that starts with
// the lib name, i.e. core.so.1 or core.armv7-neon-hf.so for core.so.
func loadLibRolling(path string) (unsafe.Pointer, error) {
	dir, lib := filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("couldn't find the lib: %w", err)
	}
	for _, file := range files {
		if !file.IsDir() && strings.HasPrefix(file.Name(), lib) {
			if handle := open(filepath.Join(dir, file.Name())); handle != nil {
				return handle, nil
			}
		}
	}
	return nil, errors.New("couldn't find 'n load the lib")
}

func closeLib(handle unsafe.Pointer) error {
	if handle == nil {
		return nil
	}
	if code := int(C.dlclose(handle)); code != 0 {
		return fmt.Errorf("couldn't close the lib (%v)", code)
	}
	return nil
}
