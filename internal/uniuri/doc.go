// Package uniuri generates random strings good for use in URIs to identify
// unique objects. It uses crypto/rand and rejects bytes outside the usable
// range to avoid modulo bias.
package uniuri
