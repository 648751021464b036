/*
Package errors provides semantic error types for the record gateway and its
persistence engines.

Common Errors:

	var (
	    ErrConfiguration   = errors.New("configuration error")
	    ErrAlreadyExists   = errors.New("entity already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrNoIndexMap      = errors.New("no index map found for collection")
	)

A ConfigurationError marks a broken model definition (for example a relation
descriptor of an unsupported shape). It is a programmer error and is never
retried. Engine failures are not translated; they reach the caller unchanged.
A record that does not exist is reported as a nil result, not as an error.

Usage:

	posts, err := gw.Find(ctx, filter, []string{"author"})
	if errors.IsConfiguration(err) {
	    // fix the relation registry
	}
*/
package errors
