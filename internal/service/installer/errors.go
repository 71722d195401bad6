package installer

import "errors"

// ErrConfiguration marks invalid or incomplete configuration. Nothing has been staged when it is returned.
var ErrConfiguration = errors.New("configuration error")

// errConfigExists is returned by WriteConfig when the file is present and overwriting was not requested.
var errConfigExists = errors.New("configuration file already exists")
