// Package connectors holds document sources that feed the ingestion
// pipeline. The filesystem connector scans and watches local directories.
package connectors
