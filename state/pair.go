package state

type Pair[Ty1, Ty2 any] struct {
	V1 Ty1
	V2 Ty2
}
