// Package testtypes provides services used by tests.
package testtypes

import (
	"reflect"
)

var (
	TypeStructAPtr = reflect.TypeFor[*StructA]()
	TypeInterfaceA = reflect.TypeFor[InterfaceA]()

	TypeStructBPtr = reflect.TypeFor[*StructB]()
	TypeInterfaceB = reflect.TypeFor[InterfaceB]()

	TypeInterfaceC = reflect.TypeFor[InterfaceC]()

	TypeStructDPtr = reflect.TypeFor[*StructD]()
	TypeInterfaceD = reflect.TypeFor[InterfaceD]()
)

type InterfaceA interface {
	A()
}

type InterfaceB interface {
	B()
}

type InterfaceC interface {
	C()
}

type InterfaceD interface {
	D()
}

type StructA struct {
	Tag any
}

func (StructA) A() {}

type StructB struct {
	A InterfaceA
}

func (StructB) B() {}

type StructC struct {
	A InterfaceA
	B InterfaceB
}

func (StructC) C() {}

type StructD struct{}

func (StructD) D() {}

func NewInterfaceA() InterfaceA {
	return &StructA{}
}

func NewStructAPtr() *StructA {
	return &StructA{}
}

func NewInterfaceB(a InterfaceA) InterfaceB {
	return &StructB{A: a}
}

func NewInterfaceC(a InterfaceA, b InterfaceB) InterfaceC {
	return &StructC{A: a, B: b}
}

func NewInterfaceD(InterfaceA, InterfaceB, InterfaceC) InterfaceD {
	return &StructD{}
}
