// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package test provides in-memory file systems for loading sweep plans in tests.
package test

import (
	"io"
	"io/fs"
	"path"
	"time"
)

// MockFS is an in-memory fs.FS. Files maps a path to its content; OpenFunc,
// if set, takes precedence and can simulate open failures.
type MockFS struct {
	Files    map[string][]byte
	OpenFunc func(name string) (fs.File, error)
}

// Open returns the file at name.
func (m *MockFS) Open(name string) (fs.File, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(name)
	}
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	content, ok := m.Files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &MockFile{Name: name, Content: content}, nil
}

// MockFile is a read-only fs.File over Content.
type MockFile struct {
	Name    string
	Content []byte
	readPos int

	// CloseFunc, if set, is returned by Close.
	CloseFunc func() error
}

func (mf *MockFile) Read(b []byte) (int, error) {
	if mf.readPos >= len(mf.Content) {
		return 0, io.EOF
	}
	n := copy(b, mf.Content[mf.readPos:])
	mf.readPos += n
	return n, nil
}

func (mf *MockFile) Close() error {
	if mf.CloseFunc != nil {
		return mf.CloseFunc()
	}
	return nil
}

func (mf *MockFile) Stat() (fs.FileInfo, error) {
	return fileInfo{name: path.Base(mf.Name), size: int64(len(mf.Content))}, nil
}

type fileInfo struct {
	name string
	size int64
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return nil }
