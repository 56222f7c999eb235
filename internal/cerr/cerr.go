// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cerr provides constant sentinel errors for packages that sit on top
// of the queues.
package cerr

// Error is a string that can be declared as a const and compared with
// errors.Is.
type Error string

func (e Error) Error() string {
	return string(e)
}
