package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/smallstep/certinfo"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/secsvc"
)

// selector holds the item-addressing flags shared by the subcommands.
type selector struct {
	class   *string
	service *string
	account *string
	server  *string
	port    *int
	proto   *string
	path    *string
	tag     *string
	subject *string
	issuer  *string
	serial  *string
	label   *string
}

func addSelectorFlags(f *flag.FlagSet) *selector {
	return &selector{
		class:   f.String("class", "genp", "item class: genp, inet, keys, cert, idnt"),
		service: f.String("service", "", "service name (generic passwords)"),
		account: f.String("account", "", "account name (passwords)"),
		server:  f.String("server", "", "server host (internet passwords)"),
		port:    f.Int("port", 0, "server port (internet passwords)"),
		proto:   f.String("proto", "", "protocol (internet passwords)"),
		path:    f.String("path", "", "URL path (internet passwords)"),
		tag:     f.String("tag", "", "application tag (keys)"),
		subject: f.String("subject", "", "subject common name (certificates, identities)"),
		issuer:  f.String("issuer", "", "issuer common name (certificates, identities)"),
		serial:  f.String("serial", "", "serial number (certificates, identities)"),
		label:   f.String("label", "", "item label"),
	}
}

func (sel *selector) query() (keyward.Query, error) {
	class, ok := keyward.ClassFromToken(*sel.class)
	if !ok {
		return nil, fmt.Errorf("invalid item class: %s", *sel.class)
	}
	switch class {
	case keyward.ClassGenericPassword:
		q := keyward.NewGenericPasswordQuery()
		q.SetService(*sel.service)
		q.SetAccount(*sel.account)
		q.SetLabel(*sel.label)
		return q, nil
	case keyward.ClassInternetPassword:
		q := keyward.NewInternetPasswordQuery()
		q.SetServer(*sel.server)
		q.SetPort(*sel.port)
		q.SetProtocol(keyward.Protocol(*sel.proto))
		q.SetPath(*sel.path)
		q.SetAccount(*sel.account)
		q.SetLabel(*sel.label)
		return q, nil
	case keyward.ClassKey:
		q := keyward.NewKeyQuery()
		q.SetApplicationTag(*sel.tag)
		q.SetLabel(*sel.label)
		return q, nil
	case keyward.ClassCertificate:
		q := keyward.NewCertificateQuery()
		q.SetSubject(*sel.subject)
		q.SetIssuer(*sel.issuer)
		q.SetSerialNumber(*sel.serial)
		q.SetLabel(*sel.label)
		return q, nil
	default:
		q := keyward.NewIdentityQuery()
		q.SetSubject(*sel.subject)
		q.SetIssuer(*sel.issuer)
		q.SetSerialNumber(*sel.serial)
		q.SetLabel(*sel.label)
		return q, nil
	}
}

func storeCmd(env *cmdEnv, args []string, usage func()) error {
	f := flag.NewFlagSet("store", flag.ExitOnError)
	sel := addSelectorFlags(f)
	var (
		value = f.String("value", "", "secret value")
		in    = f.String("in", "", "file with the secret value (e.g. DER key or certificate)")
		bio   = f.Bool("bio", false, "require biometry to read the item back")
	)
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	if (*value == "" && *in == "") || (*value != "" && *in != "") {
		return errors.New("must specify one of -value or -in")
	}
	data := []byte(*value)
	if *in != "" {
		var err error
		if data, err = os.ReadFile(*in); err != nil {
			return err
		}
	}

	q, err := sel.query()
	if err != nil {
		return err
	}
	var policy *keyward.AccessPolicy
	if *bio {
		policy = keyward.NewAccessPolicy(
			keyward.AccessibleWhenUnlockedThisDeviceOnly,
			keyward.WithConstraint(keyward.ConstraintBiometry),
		)
	}

	kc, svc, err := env.open()
	if err != nil {
		return err
	}
	defer svc.Close()
	return kc.Store(q, keyward.Blob(data), policy)
}

func getCmd(env *cmdEnv, args []string, usage func()) error {
	f := flag.NewFlagSet("get", flag.ExitOnError)
	sel := addSelectorFlags(f)
	out := f.String("o", "", "write the secret to a file instead of stdout")
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	q, err := sel.query()
	if err != nil {
		return err
	}
	kc, svc, err := env.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	data, found, err := kc.RetrieveData(q)
	if err != nil {
		return err
	}
	if !found {
		return errors.New("no matching item")
	}
	if *out != "" {
		return os.WriteFile(*out, data, 0600)
	}
	fmt.Printf("%s\n", data)
	return nil
}

func rmCmd(env *cmdEnv, args []string, usage func()) error {
	f := flag.NewFlagSet("rm", flag.ExitOnError)
	sel := addSelectorFlags(f)
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	q, err := sel.query()
	if err != nil {
		return err
	}
	kc, svc, err := env.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	removed, err := kc.Remove(q)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("no matching item")
	}
	return nil
}

var allClasses = []keyward.Class{
	keyward.ClassGenericPassword,
	keyward.ClassInternetPassword,
	keyward.ClassKey,
	keyward.ClassCertificate,
	keyward.ClassIdentity,
}

func lsCmd(env *cmdEnv, args []string, usage func()) error {
	f := flag.NewFlagSet("ls", flag.ExitOnError)
	class := f.String("class", "", "limit to one item class")
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	classes := allClasses
	if *class != "" {
		c, ok := keyward.ClassFromToken(*class)
		if !ok {
			return fmt.Errorf("invalid item class: %s", *class)
		}
		classes = []keyward.Class{c}
	}

	kc, svc, err := env.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tREF\tLABEL\tWHERE")
	for _, c := range classes {
		items, err := kc.Items(c)
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c, it.Ref, attrStr(it, secsvc.AttrLabel), where(it))
		}
	}
	return w.Flush()
}

func attrStr(it secsvc.Item, key string) string {
	v, _ := it.Attrs[key].(string)
	return v
}

// where summarizes an item's addressing attributes for listing.
func where(it secsvc.Item) string {
	if s := attrStr(it, secsvc.AttrService); s != "" {
		return s + "/" + attrStr(it, secsvc.AttrAccount)
	}
	if s := attrStr(it, secsvc.AttrServer); s != "" {
		return s + "/" + attrStr(it, secsvc.AttrAccount)
	}
	if s := attrStr(it, secsvc.AttrApplicationTag); s != "" {
		return s
	}
	return attrStr(it, secsvc.AttrSubject)
}

func exportCmd(env *cmdEnv, args []string, usage func()) error {
	f := flag.NewFlagSet("export", flag.ExitOnError)
	var (
		out      = f.String("o", "", "output plist file")
		withData = f.Bool("data", false, "include secret data in the export")
	)
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	if *out == "" {
		return errors.New("must specify -o")
	}
	kc, svc, err := env.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	data, err := kc.Export(*withData)
	if err != nil {
		return err
	}
	return os.WriteFile(*out, data, 0600)
}

func importCmd(env *cmdEnv, args []string, usage func()) error {
	f := flag.NewFlagSet("import", flag.ExitOnError)
	in := f.String("f", "", "plist file to import")
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	if *in == "" {
		return errors.New("must specify -f")
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	kc, svc, err := env.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	n, err := kc.Import(data)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d items\n", n)
	return nil
}

func inspectCmd(env *cmdEnv, args []string, usage func()) error {
	f := flag.NewFlagSet("inspect", flag.ExitOnError)
	sel := addSelectorFlags(f)
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	q, err := sel.query()
	if err != nil {
		return err
	}
	kc, svc, err := env.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	switch q.Class() {
	case keyward.ClassCertificate:
		cert, found, err := keyward.Retrieve[keyward.CertificateValue](kc, q)
		if err != nil {
			return err
		}
		if !found {
			return errors.New("no matching certificate")
		}
		text, err := certinfo.CertificateText(cert.Certificate)
		if err != nil {
			return err
		}
		fmt.Print(text)
	case keyward.ClassIdentity:
		id, found, err := keyward.Retrieve[keyward.Identity](kc, q)
		if err != nil {
			return err
		}
		if !found {
			return errors.New("no matching identity")
		}
		text, err := certinfo.CertificateText(id.Certificate)
		if err != nil {
			return err
		}
		fmt.Print(text)
	default:
		return errors.New("inspect works on certificates and identities")
	}
	return nil
}

func randCmd(args []string, usage func()) error {
	f := flag.NewFlagSet("rand", flag.ExitOnError)
	n := f.Int("n", 32, "length of the random hex string")
	f.Usage = func() {
		usage()
		fmt.Fprintf(f.Output(), "\nFlags for %s subcommand:\n", f.Name())
		f.PrintDefaults()
	}
	f.Parse(args)

	s, err := keyward.RandomHex(*n)
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}
