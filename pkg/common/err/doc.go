// Package err provides the standardized error type used across the project.
//
// Every package wraps its failures in *err.Error with a package name, a
// machine-readable code, and the operation that failed. Codes drive control
// flow: the dumper downgrades CodeAbsent, CodeTransport and CodeParse to
// skip-and-log, and aborts only on CodeNoExposure.
//
// Typical usage:
//
//	return err.Wrap(e, "index", err.CodeParse, "read_header")
//
//	if err.IsCode(e, err.CodeAbsent) {
//	    // record as missing, keep going
//	}
package err
