package userscript

// Identity is the namespace-and-name key of a logical script. It is stable
// across export, import, and reinstall. Identity is comparable and is used
// directly as a map key.
type Identity struct {
	Namespace string
	Name      string
}

// String returns "namespace/name".
func (id Identity) String() string {
	return id.Namespace + "/" + id.Name
}
