// Copyright 2015 CoreOS, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sshclient

import (
	"os"

	"golang.org/x/crypto/ssh"
)

// Auth selects how a Client authenticates to a host. Exactly one of the
// constructors below should be used to build a value of this type.
type Auth struct {
	password   string
	keyFile    string
	keyData    []byte
	passphrase string
	kind       authKind
}

type authKind int

const (
	authPassword authKind = iota
	authKeyFile
	authKeyData
)

// Password authenticates with a plaintext password.
func Password(password string) Auth {
	return Auth{kind: authPassword, password: password}
}

// KeyFile authenticates with a private key read from path, optionally
// decrypted with passphrase.
func KeyFile(path, passphrase string) Auth {
	return Auth{kind: authKeyFile, keyFile: path, passphrase: passphrase}
}

// KeyData authenticates with an in-memory private key, optionally
// decrypted with passphrase.
func KeyData(data []byte, passphrase string) Auth {
	return Auth{kind: authKeyData, keyData: data, passphrase: passphrase}
}

func (a Auth) method() (ssh.AuthMethod, error) {
	switch a.kind {
	case authPassword:
		return ssh.Password(a.password), nil
	case authKeyFile:
		data, err := os.ReadFile(a.keyFile)
		if err != nil {
			return nil, err
		}
		return signerAuth(data, a.passphrase)
	case authKeyData:
		return signerAuth(a.keyData, a.passphrase)
	default:
		panic("sshclient: invalid Auth value")
	}
}

func signerAuth(pemBytes []byte, passphrase string) (ssh.AuthMethod, error) {
	var signer ssh.Signer
	var err error
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pemBytes)
	}
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}
