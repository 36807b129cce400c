package packaging

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxPackageIDLength is the longest accepted package id.
const MaxPackageIDLength = 100

var packageIDPattern = regexp.MustCompile(`^\w+([.-]\w+)*$`)

// ValidatePackageID checks id against the NuGet id rules: word characters
// separated by single '.' or '-', at most MaxPackageIDLength long.
func ValidatePackageID(id string) error {
	if id == "" {
		return fmt.Errorf("package ID cannot be empty")
	}
	if len(id) > MaxPackageIDLength {
		return fmt.Errorf("package ID %q exceeds %d characters", id, MaxPackageIDLength)
	}
	if !packageIDPattern.MatchString(id) {
		return fmt.Errorf("package ID %q contains invalid characters", id)
	}
	return nil
}

// ValidateMetadata checks the fields every package needs.
func ValidateMetadata(metadata PackageMetadata) error {
	var errs []error

	if err := ValidatePackageID(metadata.ID); err != nil {
		errs = append(errs, err)
	}
	if metadata.Version == nil {
		errs = append(errs, fmt.Errorf("package version is required"))
	}
	if strings.TrimSpace(metadata.Description) == "" {
		errs = append(errs, fmt.Errorf("package description is required"))
	}
	if len(metadata.Authors) == 0 {
		errs = append(errs, fmt.Errorf("package authors are required"))
	}
	if metadata.RequireLicenseAcceptance && metadata.LicenseURL == nil {
		errs = append(errs, fmt.Errorf("license acceptance requires a license URL"))
	}
	if err := ValidateDependencies(metadata.ID, metadata.DependencyGroups); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateDependencies rejects self references and repeated ids within a
// group.
func ValidateDependencies(packageID string, groups []PackageDependencyGroup) error {
	for _, group := range groups {
		seen := make(map[string]bool, len(group.Dependencies))
		for _, dep := range group.Dependencies {
			key := strings.ToLower(dep.ID)
			if key == "" {
				return fmt.Errorf("dependency with empty id in group %s", groupName(group))
			}
			if strings.EqualFold(dep.ID, packageID) {
				return fmt.Errorf("package %s cannot depend on itself", packageID)
			}
			if seen[key] {
				return fmt.Errorf("duplicate dependency %q in group %s", dep.ID, groupName(group))
			}
			seen[key] = true
		}
	}
	return nil
}

// ValidateFiles checks each target path and rejects paths that differ only
// in case.
func ValidateFiles(files []ManifestFile) error {
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if err := ValidatePackagePath(f.Target); err != nil {
			return err
		}
		key := strings.ToLower(NormalizePackagePath(f.Target))
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateFile, prev, f.Target)
		}
		seen[key] = f.Target
	}
	return nil
}

func groupName(g PackageDependencyGroup) string {
	if g.TargetFramework == nil {
		return "any"
	}
	return g.TargetFramework.GetShortFolderName()
}
