package process

import "errors"

// ErrStructure reports a malformed or empty procedure document. It is the
// only error that aborts a whole pipeline run.
var ErrStructure = errors.New("process: malformed document")
