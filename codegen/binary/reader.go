package binary

import (
	"fmt"
	"os"
	"strings"

	"goa.design/accessors/codegen/ir"
	"goa.design/accessors/codegen/jvm"
	"goa.design/accessors/codegen/kmeta"
)

// ReadFacade loads the class file of facade under classesDir and decodes
// its Kotlin metadata.
func ReadFacade(classesDir, facade string) (*jvm.Class, *kmeta.FileFacade, error) {
	data, err := os.ReadFile(ClassFile(classesDir, facade))
	if err != nil {
		return nil, nil, fmt.Errorf("read facade: %w", err)
	}
	class, err := jvm.ParseClass(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", facade, err)
	}
	ann := class.Annotation(metadataDesc)
	if ann == nil {
		return nil, nil, fmt.Errorf("%s: missing kotlin metadata", facade)
	}
	if k, _ := ann.Elements["k"].(int32); k != kmeta.KindFileFacade {
		return nil, nil, fmt.Errorf("%s: unexpected metadata kind %d", facade, k)
	}
	d1, _ := ann.Elements["d1"].([]string)
	d2, _ := ann.Elements["d2"].([]string)
	meta, err := kmeta.DecodeFileFacade(d1, d2)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", facade, err)
	}
	return class, meta, nil
}

// ReadProperties returns the signatures of the properties declared by the
// facade metadata, in declaration order, or nil when there are none. Every
// property must be backed by its static getter.
func ReadProperties(classesDir, facade string) ([]ir.PropertySignature, error) {
	class, meta, err := ReadFacade(classesDir, facade)
	if err != nil {
		return nil, err
	}
	var sigs []ir.PropertySignature
	for _, p := range meta.Properties {
		if class.MethodOf(p.Getter.Name, p.Getter.Desc) == nil {
			return nil, fmt.Errorf("%s: property %q has no getter %s%s", facade, p.Name, p.Getter.Name, p.Getter.Desc)
		}
		sigs = append(sigs, ir.PropertySignature{
			Name:     p.Name,
			Receiver: qualifiedName(p.ReceiverType),
			Return:   qualifiedName(p.ReturnType),
		})
	}
	return sigs, nil
}

// ReadModule decodes the module file of moduleName under classesDir.
func ReadModule(classesDir, moduleName string) (*kmeta.Module, error) {
	data, err := os.ReadFile(ModuleFile(classesDir, moduleName))
	if err != nil {
		return nil, fmt.Errorf("read module file: %w", err)
	}
	return kmeta.DecodeModule(data)
}

func qualifiedName(className string) string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(className)
}
