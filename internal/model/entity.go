package model

// Entity is anything the pipeline can match against other publishers.
type Entity interface {
	CanonicalURI() string
	Ref() Ref
	Label() string
	KindName() string
}

var (
	_ Entity = Content{}
	_ Entity = Channel{}
)
