// Package files provides file system discovery and artifact I/O for the
// batch entry points.
//
// Discovery locates report source files on disk, such as aging state
// extracts or workbook uploads staged in a directory. Artifact helpers
// load discovered files into the in-memory form the report services
// consume and persist generated archives back to disk.
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//
//	extracts, err := discovery.FindAgingExtracts("/data/extracts")
//	if err != nil {
//	    return err
//	}
//
//	artifacts, err := files.LoadArtifacts(extracts)
package files
