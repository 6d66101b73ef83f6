package driver

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ABIVersion is the driver interface version the host implements.
// Drivers declare their own Version in Metadata to indicate compatibility.
const ABIVersion = "0.1.0"

// Metadata describes a driver the way a module header does.
type Metadata struct {
	Name        string
	Description string
	Author      string
	License     string
	Version     string
}

// DefaultMetadata returns the metadata of the pseudo character device driver.
func DefaultMetadata() Metadata {
	return Metadata{
		Name:        "pcd",
		Description: "pseudo character device driver",
		License:     "GPL",
		Version:     "0.1.0",
	}
}

// Validate checks that the metadata names the driver and declares a version
// compatible with ABIVersion.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("driver name cannot be empty")
	}
	ok, err := IsCompatible(m.Version)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("driver %q version %s is incompatible with ABI %s", m.Name, m.Version, ABIVersion)
	}
	return nil
}

// IsCompatible checks if a driver version is compatible with ABIVersion.
// Uses caret constraint (^) for semantic version compatibility.
//
// For version 0.x.y, caret constraint allows only patch version changes:
// 0.1.0 accepts 0.1.0 and 0.1.7 but rejects 0.2.0 and 1.0.0.
//
// Returns false (with no error) if versions are incompatible.
// Returns an error if the version string is invalid.
func IsCompatible(version string) (bool, error) {
	constraint, err := semver.NewConstraint("^" + ABIVersion)
	if err != nil {
		return false, fmt.Errorf("invalid ABI version: %w", err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid driver version %q: %w", version, err)
	}

	return constraint.Check(v), nil
}
