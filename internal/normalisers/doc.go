// Package normalisers turns uploaded files into plain text for chunking.
//
// Each subpackage handles a family of MIME types. The Registry routes a
// raw document to the highest-priority normaliser for its type, detecting
// the type from the file extension when none is declared.
package normalisers
