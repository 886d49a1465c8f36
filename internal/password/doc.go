// Package password checks whether a password appears in known breach
// corpora using the k-anonymity range protocol.
//
// The password never leaves the process: it is hashed with SHA-1 locally,
// only the first five hex characters of the hash are sent to the range API,
// and the returned candidate set is compared against the remaining 35
// characters in memory. SHA-1 is the protocol's hash, not a security
// mechanism here; the privacy guarantee comes from the anonymity set.
//
// Neither the password nor its full hash is ever logged, stored, or placed
// in a URL or request body.
package password
