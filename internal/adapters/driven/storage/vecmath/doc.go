// Package vecmath holds the vector primitives shared by the stores and the
// embedding cache: BLOB encoding, squared L2 distance and k-means training
// for inverted-file indexes.
package vecmath
