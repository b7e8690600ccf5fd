package dlib

import "errors"

// ErrNotBuilt is returned by New when the binary lacks the dlib tag.
var ErrNotBuilt = errors.New("dlib provider requires building with -tags dlib")
