package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/hybridkem"
	"github.com/verrou-vault/verrou-core/internal/hybridsign"
)

func kemKeypairCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keypair",
		Short: "Generate a hybrid X25519 / ML-KEM-1024 keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := hybridkem.GenerateKeyPair()
			if err != nil {
				return fmt.Errorf("generate hybrid KEM keypair: %w", err)
			}
			fmt.Println("x25519 public key: ", hex.EncodeToString(kp.X25519PublicKey[:]))
			fmt.Println("x25519 private key:", hex.EncodeToString(kp.X25519PrivateKey[:]))
			fmt.Println("ml-kem public key: ", hex.EncodeToString(kp.MLKEMPublicKey[:]))
			fmt.Println("ml-kem private key:", hex.EncodeToString(kp.MLKEMPrivateKey[:]))
			return nil
		},
	}
	return cmd
}

func kemEncryptCmd(app *appContext) *cobra.Command {
	var inPath, outPath, x25519PubHex, mlkemPubHex string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encapsulate a fresh shared secret against a recipient's hybrid public key and seal a payload under it",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			x25519Pub, err := decodeKey32(x25519PubHex)
			if err != nil {
				return fmt.Errorf("x25519 public key: %w", err)
			}
			mlkemPubRaw, err := hex.DecodeString(mlkemPubHex)
			if err != nil || len(mlkemPubRaw) != hybridkem.MLKEMPublicKeySize {
				return fmt.Errorf("ml-kem public key must be %d hex-encoded bytes", hybridkem.MLKEMPublicKeySize)
			}
			var mlkemPub [hybridkem.MLKEMPublicKeySize]byte
			copy(mlkemPub[:], mlkemPubRaw)

			ct, secret, err := hybridkem.Encapsulate(x25519Pub, mlkemPub)
			if err != nil {
				return fmt.Errorf("encapsulate: %w", err)
			}
			defer secret.Destroy()

			sealed, err := sealWithDerivedKey(secret.Expose(), payload)
			if err != nil {
				return err
			}

			out := make([]byte, 0, len(ct.X25519SenderPublicKey)+len(ct.MLKEMCiphertext)+len(sealed))
			out = append(out, ct.X25519SenderPublicKey[:]...)
			out = append(out, ct.MLKEMCiphertext[:]...)
			out = append(out, sealed...)

			if err := os.WriteFile(outPath, out, 0o600); err != nil {
				return fmt.Errorf("write sealed output: %w", err)
			}
			printSuccess(fmt.Sprintf("wrote sealed payload to %s", outPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "path to the plaintext payload")
	cmd.Flags().StringVar(&outPath, "out", "sealed.bin", "path to write the sealed output")
	cmd.Flags().StringVar(&x25519PubHex, "x25519-public-key", "", "hex-encoded recipient X25519 public key")
	cmd.Flags().StringVar(&mlkemPubHex, "mlkem-public-key", "", "hex-encoded recipient ML-KEM-1024 public key")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("x25519-public-key")
	cmd.MarkFlagRequired("mlkem-public-key")
	return cmd
}

func kemDecryptCmd(app *appContext) *cobra.Command {
	var inPath, outPath, x25519PrivHex, mlkemPrivHex, x25519PubHex, mlkemPubHex string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decapsulate a hybrid-sealed payload produced by kem encrypt",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read sealed input: %w", err)
			}
			if len(data) < 32+hybridkem.MLKEMCiphertextSize {
				return fmt.Errorf("sealed input too short")
			}

			var ct hybridkem.Ciphertext
			copy(ct.X25519SenderPublicKey[:], data[:32])
			copy(ct.MLKEMCiphertext[:], data[32:32+hybridkem.MLKEMCiphertextSize])
			rest := data[32+hybridkem.MLKEMCiphertextSize:]

			kp, err := buildKemKeyPair(x25519PrivHex, mlkemPrivHex, x25519PubHex, mlkemPubHex)
			if err != nil {
				return err
			}

			secret, err := hybridkem.Decapsulate(ct, kp)
			if err != nil {
				return fmt.Errorf("decapsulate: %w", err)
			}
			defer secret.Destroy()

			payload, err := openWithDerivedKey(secret.Expose(), rest)
			if err != nil {
				return fmt.Errorf("open sealed payload (wrong keypair, or data was tampered with): %w", err)
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, payload, 0o600); err != nil {
					return fmt.Errorf("write payload: %w", err)
				}
				printSuccess(fmt.Sprintf("wrote payload to %s", outPath))
				return nil
			}
			os.Stdout.Write(payload)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "sealed.bin", "path to the sealed input")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the recovered payload (default: stdout)")
	cmd.Flags().StringVar(&x25519PrivHex, "x25519-private-key", "", "hex-encoded X25519 private key")
	cmd.Flags().StringVar(&mlkemPrivHex, "mlkem-private-key", "", "hex-encoded ML-KEM-1024 private key")
	cmd.Flags().StringVar(&x25519PubHex, "x25519-public-key", "", "hex-encoded X25519 public key (the matching public half)")
	cmd.Flags().StringVar(&mlkemPubHex, "mlkem-public-key", "", "hex-encoded ML-KEM-1024 public key (the matching public half)")
	cmd.MarkFlagRequired("x25519-private-key")
	cmd.MarkFlagRequired("mlkem-private-key")
	cmd.MarkFlagRequired("x25519-public-key")
	cmd.MarkFlagRequired("mlkem-public-key")
	return cmd
}

func buildKemKeyPair(x25519PrivHex, mlkemPrivHex, x25519PubHex, mlkemPubHex string) (*hybridkem.KeyPair, error) {
	var kp hybridkem.KeyPair

	x25519Priv, err := decodeKey32(x25519PrivHex)
	if err != nil {
		return nil, fmt.Errorf("x25519 private key: %w", err)
	}
	kp.X25519PrivateKey = x25519Priv

	x25519Pub, err := decodeKey32(x25519PubHex)
	if err != nil {
		return nil, fmt.Errorf("x25519 public key: %w", err)
	}
	kp.X25519PublicKey = x25519Pub

	mlkemPrivRaw, err := hex.DecodeString(mlkemPrivHex)
	if err != nil || len(mlkemPrivRaw) != hybridkem.MLKEMPrivateKeySize {
		return nil, fmt.Errorf("ml-kem private key must be %d hex-encoded bytes", hybridkem.MLKEMPrivateKeySize)
	}
	copy(kp.MLKEMPrivateKey[:], mlkemPrivRaw)

	mlkemPubRaw, err := hex.DecodeString(mlkemPubHex)
	if err != nil || len(mlkemPubRaw) != hybridkem.MLKEMPublicKeySize {
		return nil, fmt.Errorf("ml-kem public key must be %d hex-encoded bytes", hybridkem.MLKEMPublicKeySize)
	}
	copy(kp.MLKEMPublicKey[:], mlkemPubRaw)

	return &kp, nil
}

func signKeypairCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keypair",
		Short: "Generate a hybrid Ed25519 / ML-DSA-65 signing keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := hybridsign.GenerateKeyPair()
			if err != nil {
				return fmt.Errorf("generate hybrid signing keypair: %w", err)
			}
			fmt.Println("ed25519 public key: ", hex.EncodeToString(kp.Ed25519PublicKey[:]))
			fmt.Println("ed25519 private key:", hex.EncodeToString(kp.Ed25519PrivateKey[:]))
			fmt.Println("ml-dsa public key:  ", hex.EncodeToString(kp.MLDSAPublicKey[:]))
			fmt.Println("ml-dsa private key: ", hex.EncodeToString(kp.MLDSAPrivateKey[:]))
			return nil
		},
	}
	return cmd
}

func signCmd(app *appContext) *cobra.Command {
	var inPath, ed25519PrivHex, mldsaPrivHex string

	cmd := &cobra.Command{
		Use:   "message",
		Short: "Sign a file with a hybrid Ed25519 / ML-DSA-65 keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read message: %w", err)
			}

			var kp hybridsign.KeyPair
			edPriv, err := hex.DecodeString(ed25519PrivHex)
			if err != nil || len(edPriv) != hybridsign.Ed25519PrivateKeySize {
				return fmt.Errorf("ed25519 private key must be %d hex-encoded bytes", hybridsign.Ed25519PrivateKeySize)
			}
			copy(kp.Ed25519PrivateKey[:], edPriv)

			mldsaPriv, err := hex.DecodeString(mldsaPrivHex)
			if err != nil || len(mldsaPriv) != hybridsign.MLDSAPrivateKeySize {
				return fmt.Errorf("ml-dsa private key must be %d hex-encoded bytes", hybridsign.MLDSAPrivateKeySize)
			}
			copy(kp.MLDSAPrivateKey[:], mldsaPriv)

			sig, err := hybridsign.Sign(&kp, message)
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}

			fmt.Println("ed25519 signature:", hex.EncodeToString(sig.Ed25519Signature[:]))
			fmt.Println("ml-dsa signature: ", hex.EncodeToString(sig.MLDSASignature[:]))
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "path to the message to sign")
	cmd.Flags().StringVar(&ed25519PrivHex, "ed25519-private-key", "", "hex-encoded Ed25519 private key")
	cmd.Flags().StringVar(&mldsaPrivHex, "mldsa-private-key", "", "hex-encoded ML-DSA-65 private key")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("ed25519-private-key")
	cmd.MarkFlagRequired("mldsa-private-key")
	return cmd
}

func verifyCmd(app *appContext) *cobra.Command {
	var inPath, ed25519PubHex, mldsaPubHex, ed25519SigHex, mldsaSigHex string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a hybrid Ed25519 / ML-DSA-65 signature over a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read message: %w", err)
			}

			var pub hybridsign.PublicKey
			edPub, err := hex.DecodeString(ed25519PubHex)
			if err != nil || len(edPub) != hybridsign.Ed25519PublicKeySize {
				return fmt.Errorf("ed25519 public key must be %d hex-encoded bytes", hybridsign.Ed25519PublicKeySize)
			}
			copy(pub.Ed25519PublicKey[:], edPub)

			mldsaPub, err := hex.DecodeString(mldsaPubHex)
			if err != nil || len(mldsaPub) != hybridsign.MLDSAPublicKeySize {
				return fmt.Errorf("ml-dsa public key must be %d hex-encoded bytes", hybridsign.MLDSAPublicKeySize)
			}
			copy(pub.MLDSAPublicKey[:], mldsaPub)

			var sig hybridsign.Signature
			edSig, err := hex.DecodeString(ed25519SigHex)
			if err != nil || len(edSig) != hybridsign.Ed25519SignatureSize {
				return fmt.Errorf("ed25519 signature must be %d hex-encoded bytes", hybridsign.Ed25519SignatureSize)
			}
			copy(sig.Ed25519Signature[:], edSig)

			mldsaSig, err := hex.DecodeString(mldsaSigHex)
			if err != nil || len(mldsaSig) != hybridsign.MLDSASignatureSize {
				return fmt.Errorf("ml-dsa signature must be %d hex-encoded bytes", hybridsign.MLDSASignatureSize)
			}
			copy(sig.MLDSASignature[:], mldsaSig)

			if hybridsign.Verify(pub, message, sig) {
				printSuccess("signature valid")
				return nil
			}
			return fmt.Errorf("signature invalid")
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "path to the message to verify")
	cmd.Flags().StringVar(&ed25519PubHex, "ed25519-public-key", "", "hex-encoded Ed25519 public key")
	cmd.Flags().StringVar(&mldsaPubHex, "mldsa-public-key", "", "hex-encoded ML-DSA-65 public key")
	cmd.Flags().StringVar(&ed25519SigHex, "ed25519-signature", "", "hex-encoded Ed25519 signature")
	cmd.Flags().StringVar(&mldsaSigHex, "mldsa-signature", "", "hex-encoded ML-DSA-65 signature")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("ed25519-public-key")
	cmd.MarkFlagRequired("mldsa-public-key")
	cmd.MarkFlagRequired("ed25519-signature")
	cmd.MarkFlagRequired("mldsa-signature")
	return cmd
}
