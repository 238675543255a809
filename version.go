package qconvert

// FHIRVersion identifies one of the Questionnaire schema dialects.
type FHIRVersion string

// Supported FHIR versions, oldest first.
const (
	// STU3 is FHIR Release 3 (3.0.2)
	STU3 FHIRVersion = "STU3"
	// R4 is FHIR Release 4 (4.0.1)
	R4 FHIRVersion = "R4"
	// R4B is FHIR Release 4B (4.3.0)
	R4B FHIRVersion = "R4B"
	// R5 is FHIR Release 5 (5.0.0)
	R5 FHIRVersion = "R5"
)

// String returns the version string.
func (v FHIRVersion) String() string {
	return string(v)
}

// IsValid returns true if this is a supported FHIR version.
func (v FHIRVersion) IsValid() bool {
	_, ok := versionConfigs[v]
	return ok
}

// ParseVersion accepts exactly the four version tokens.
func ParseVersion(s string) (FHIRVersion, bool) {
	v := FHIRVersion(s)
	return v, v.IsValid()
}

// Release returns the full release number, e.g. "4.0.1".
func (v FHIRVersion) Release() string {
	return versionConfigs[v].FHIRVersionString
}

// ExtensionTag returns the major.minor number used in inter-version
// extension URLs, e.g. "5.0".
func (v FHIRVersion) ExtensionTag() string {
	return versionConfigs[v].ExtensionTag
}

// ProfileURL returns the core Questionnaire profile for the version.
func (v FHIRVersion) ProfileURL() string {
	tag := v.ExtensionTag()
	if tag == "" {
		return ""
	}
	return "http://hl7.org/fhir/" + tag + "/StructureDefinition/Questionnaire"
}

// versionConfig holds version-specific configuration.
type versionConfig struct {
	// FHIRVersionString is the version string used in StructureDefinitions
	FHIRVersionString string

	// ExtensionTag is the major.minor form used by inter-version extensions
	ExtensionTag string
}

// versionConfigs maps FHIR versions to their configurations.
var versionConfigs = map[FHIRVersion]versionConfig{
	STU3: {FHIRVersionString: "3.0.2", ExtensionTag: "3.0"},
	R4:   {FHIRVersionString: "4.0.1", ExtensionTag: "4.0"},
	R4B:  {FHIRVersionString: "4.3.0", ExtensionTag: "4.3"},
	R5:   {FHIRVersionString: "5.0.0", ExtensionTag: "5.0"},
}
