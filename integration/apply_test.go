package integration_test

import (
	"os"
	"path/filepath"
	"strings"

	"code.cloudfoundry.org/veneer/commands/config"
	"code.cloudfoundry.org/veneer/integration"
	"code.cloudfoundry.org/veneer/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

var _ = Describe("Apply", func() {
	var tarPath string

	BeforeEach(func() {
		tarPath = filepath.Join(workDir, "layer.tar")
	})

	Context("when the layer whites out an existing file", func() {
		BeforeEach(func() {
			integration.WriteRootfsFile(rootfsPath, "usr/share/doc/test/oldfile", "to be removed")

			tarball := testhelpers.Tarball{
				testhelpers.Whiteout{Path: "usr/share/doc/test/oldfile"},
				testhelpers.File{Name: "usr/share/doc/test/newfile", Contents: "hello"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		It("removes the file and materializes the rest of the layer", func() {
			_, err := Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(filepath.Join(rootfsPath, "usr/share/doc/test/oldfile")).NotTo(BeAnExistingFile())
			Expect(integration.ReadRootfsFile(rootfsPath, "usr/share/doc/test/newfile")).To(Equal("hello"))
		})

		It("does not materialize the marker itself", func() {
			_, err := Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(filepath.Join(rootfsPath, "usr/share/doc/test/.wh.oldfile")).NotTo(BeAnExistingFile())
		})

		It("exits with a zero status", func() {
			session, err := Runner.StartApply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(0))
		})
	})

	Context("when the layer marks a directory opaque", func() {
		BeforeEach(func() {
			integration.WriteRootfsFile(rootfsPath, "etc/passwd", "root:x:0:0:root:/root:/bin/sh\n")
			integration.WriteRootfsFile(rootfsPath, "etc/shadow", "root:!:19000::::::\n")

			tarball := testhelpers.Tarball{
				testhelpers.OpaqueWhiteout{Dir: "etc"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		It("deletes the directory and everything under it", func() {
			_, err := Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(filepath.Join(rootfsPath, "etc")).NotTo(BeADirectory())
			Expect(integration.ListRootfs(rootfsPath)).To(BeEmpty())
		})
	})

	Context("when the layer both deletes a path and ships new content for it", func() {
		BeforeEach(func() {
			integration.WriteRootfsFile(rootfsPath, "opt/tool/config.ini", "version=1")

			tarball := testhelpers.Tarball{
				testhelpers.File{Name: "opt/tool/config.ini", Contents: "version=2"},
				testhelpers.Whiteout{Path: "opt/tool/config.ini"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		It("ends up with the new content, whatever the entry order", func() {
			_, err := Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(integration.ReadRootfsFile(rootfsPath, "opt/tool/config.ini")).To(Equal("version=2"))
		})
	})

	Context("when the same layer is applied twice", func() {
		BeforeEach(func() {
			integration.WriteRootfsFile(rootfsPath, "var/log/stale.log", "stale")

			tarball := testhelpers.Tarball{
				testhelpers.Whiteout{Path: "var/log/stale.log"},
				testhelpers.Dir{Name: "bin"},
				testhelpers.File{Name: "bin/busybox", Contents: "#!/bin/sh"},
				testhelpers.Hardlink{Name: "bin/sh", Target: "bin/busybox"},
				testhelpers.Symlink{Name: "bin/ash", Target: "busybox"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		It("converges to the same tree", func() {
			_, err := Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())
			firstListing := integration.ListRootfs(rootfsPath)

			_, err = Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(integration.ListRootfs(rootfsPath)).To(Equal(firstListing))
			Expect(integration.ReadRootfsFile(rootfsPath, "bin/busybox")).To(Equal("#!/bin/sh"))
			Expect(filepath.Join(rootfsPath, "var/log/stale.log")).NotTo(BeAnExistingFile())
		})
	})

	Context("when the layer carries device nodes and pipes", func() {
		BeforeEach(func() {
			tarball := testhelpers.Tarball{
				testhelpers.Dir{Name: "dev"},
				testhelpers.CharDevice{Name: "dev/null"},
				testhelpers.BlockDevice{Name: "dev/sda"},
				testhelpers.Fifo{Name: "dev/initctl"},
				testhelpers.File{Name: "dev/README", Contents: "device nodes live here"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		It("skips them and keeps going", func() {
			_, err := Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(integration.ListRootfs(rootfsPath)).To(Equal([]string{"dev", "dev/README"}))
		})
	})

	Describe("compressed layers", func() {
		var tarball testhelpers.Tarball

		BeforeEach(func() {
			tarball = testhelpers.Tarball{
				testhelpers.File{Name: "etc/motd", Contents: "compressed greetings"},
			}
		})

		Context("when the layer is gzipped", func() {
			BeforeEach(func() {
				Expect(tarball.WriteGzipFile(tarPath)).To(Succeed())
			})

			It("detects the compression and applies the layer", func() {
				descriptor, err := Runner.Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(descriptor.MediaType).To(Equal("application/vnd.oci.image.layer.v1.tar+gzip"))
				Expect(integration.ReadRootfsFile(rootfsPath, "etc/motd")).To(Equal("compressed greetings"))
			})
		})

		Context("when the layer is xz compressed", func() {
			BeforeEach(func() {
				Expect(tarball.WriteXzFile(tarPath)).To(Succeed())
			})

			It("detects the compression and applies the layer", func() {
				descriptor, err := Runner.Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(descriptor.MediaType).To(Equal("application/vnd.oci.image.layer.v1.tar+xz"))
				Expect(integration.ReadRootfsFile(rootfsPath, "etc/motd")).To(Equal("compressed greetings"))
			})
		})

		Context("when the layer is zstd compressed", func() {
			BeforeEach(func() {
				Expect(tarball.WriteZstdFile(tarPath)).To(Succeed())
			})

			It("detects the compression and applies the layer", func() {
				descriptor, err := Runner.Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(descriptor.MediaType).To(Equal("application/vnd.oci.image.layer.v1.tar+zstd"))
				Expect(integration.ReadRootfsFile(rootfsPath, "etc/motd")).To(Equal("compressed greetings"))
			})
		})
	})

	Describe("layer descriptor", func() {
		BeforeEach(func() {
			tarball := testhelpers.Tarball{
				testhelpers.File{Name: "etc/hostname", Contents: "veneer-box"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		It("reports the digest and size of the layer file as it sits on disk", func() {
			descriptor, err := Runner.Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			stat, err := os.Stat(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(descriptor.MediaType).To(Equal("application/vnd.oci.image.layer.v1.tar"))
			Expect(descriptor.Digest).To(Equal(integration.LayerDigest(tarPath)))
			Expect(descriptor.Size).To(Equal(stat.Size()))
		})

		It("prints it as json on stdout", func() {
			outBuffer := gbytes.NewBuffer()
			_, err := Runner.WithStdout(outBuffer).Apply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Eventually(outBuffer).Should(gbytes.Say(`"mediaType":"application/vnd.oci.image.layer.v1.tar"`))
		})
	})

	Describe("--digest", func() {
		BeforeEach(func() {
			tarball := testhelpers.Tarball{
				testhelpers.File{Name: "etc/hostname", Contents: "veneer-box"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		Context("when the digest matches the layer", func() {
			It("applies the layer", func() {
				_, err := Runner.WithDigest(integration.LayerDigest(tarPath).String()).Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(integration.ReadRootfsFile(rootfsPath, "etc/hostname")).To(Equal("veneer-box"))
			})
		})

		Context("when the digest does not match", func() {
			It("refuses to extract anything", func() {
				wrongDigest := "sha256:" + strings.Repeat("0", 64)
				session, err := Runner.WithDigest(wrongDigest).StartApply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Eventually(session).Should(gexec.Exit(255))
				Eventually(session.Err).Should(gbytes.Say("does not match expected digest"))
				Expect(filepath.Join(rootfsPath, "etc/hostname")).NotTo(BeAnExistingFile())
			})
		})

		Context("when the digest cannot be parsed", func() {
			It("fails before touching the rootfs", func() {
				integration.WriteRootfsFile(rootfsPath, "etc/keep", "keep")
				before := integration.ListRootfs(rootfsPath)

				session, err := Runner.WithDigest("not-a-digest").StartApply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Eventually(session).Should(gexec.Exit(255))
				Eventually(session.Err).Should(gbytes.Say("invalid digest"))
				Expect(integration.ListRootfs(rootfsPath)).To(Equal(before))
			})
		})
	})

	Describe("rootfs resolution", func() {
		BeforeEach(func() {
			tarball := testhelpers.Tarball{
				testhelpers.File{Name: "etc/motd", Contents: "resolved"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())
		})

		Context("when only the VENEER_ROOTFS variable is set", func() {
			It("applies onto the rootfs it names", func() {
				r := Runner.WithoutRootfs().WithEnv("VENEER_ROOTFS=" + rootfsPath)

				_, err := r.Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(integration.ReadRootfsFile(rootfsPath, "etc/motd")).To(Equal("resolved"))
			})
		})

		Context("when only the config file sets rootfs_path", func() {
			It("applies onto the configured rootfs", func() {
				r := Runner.WithoutRootfs()
				Expect(r.SetConfig(config.Config{RootfsPath: rootfsPath})).To(Succeed())

				_, err := r.Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(integration.ReadRootfsFile(rootfsPath, "etc/motd")).To(Equal("resolved"))
			})
		})

		Context("when the flag and the variable disagree", func() {
			It("honors the flag", func() {
				envRootfs := filepath.Join(workDir, "env-rootfs")
				Expect(os.Mkdir(envRootfs, 0755)).To(Succeed())

				_, err := Runner.WithEnv("VENEER_ROOTFS=" + envRootfs).Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(integration.ReadRootfsFile(rootfsPath, "etc/motd")).To(Equal("resolved"))
				Expect(integration.ListRootfs(envRootfs)).To(BeEmpty())
			})
		})

		Context("when the variable and the config disagree", func() {
			It("honors the variable", func() {
				configRootfs := filepath.Join(workDir, "config-rootfs")
				Expect(os.Mkdir(configRootfs, 0755)).To(Succeed())

				r := Runner.WithoutRootfs().WithEnv("VENEER_ROOTFS=" + rootfsPath)
				Expect(r.SetConfig(config.Config{RootfsPath: configRootfs})).To(Succeed())

				_, err := r.Apply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(integration.ReadRootfsFile(rootfsPath, "etc/motd")).To(Equal("resolved"))
				Expect(integration.ListRootfs(configRootfs)).To(BeEmpty())
			})
		})

		Context("when nothing names a rootfs", func() {
			It("exits 255", func() {
				session, err := Runner.WithoutRootfs().StartApply(tarPath)
				Expect(err).NotTo(HaveOccurred())

				Eventually(session).Should(gexec.Exit(255))
				Eventually(session.Err).Should(gbytes.Say("rootfs was not specified"))
			})
		})
	})

	Context("when the layer tarball does not exist", func() {
		BeforeEach(func() {
			integration.WriteRootfsFile(rootfsPath, "etc/passwd", "root:x:0:0:root:/root:/bin/sh\n")
		})

		It("exits 255 without touching the rootfs", func() {
			before := integration.ListRootfs(rootfsPath)

			session, err := Runner.StartApply(filepath.Join(workDir, "missing.tar"))
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(255))
			Eventually(session.Err).Should(gbytes.Say("layer not found"))

			Expect(integration.ListRootfs(rootfsPath)).To(Equal(before))
			Expect(integration.ReadRootfsFile(rootfsPath, "etc/passwd")).To(Equal("root:x:0:0:root:/root:/bin/sh\n"))
		})
	})

	Context("when the layer path points at a directory", func() {
		It("exits 255", func() {
			session, err := Runner.StartApply(workDir)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(255))
			Eventually(session.Err).Should(gbytes.Say("directory provided instead of a tar file"))
		})
	})

	Context("when the rootfs does not exist", func() {
		It("exits 255", func() {
			tarball := testhelpers.Tarball{
				testhelpers.File{Name: "etc/motd", Contents: "hi"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())

			session, err := Runner.WithRootfs(filepath.Join(workDir, "no-such-rootfs")).StartApply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(255))
			Eventually(session.Err).Should(gbytes.Say("rootfs not found"))
		})
	})

	Context("when the rootfs path points at a file", func() {
		It("exits 255", func() {
			tarball := testhelpers.Tarball{
				testhelpers.File{Name: "etc/motd", Contents: "hi"},
			}
			Expect(tarball.WriteFile(tarPath)).To(Succeed())

			notADir := filepath.Join(workDir, "not-a-dir")
			Expect(os.WriteFile(notADir, []byte(""), 0644)).To(Succeed())

			session, err := Runner.WithRootfs(notADir).StartApply(tarPath)
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(255))
			Eventually(session.Err).Should(gbytes.Say("is not a directory"))
		})
	})

	Context("when no tarball argument is given", func() {
		It("prints the usage and exits 255", func() {
			session, err := Runner.StartSubcommand("apply")
			Expect(err).NotTo(HaveOccurred())

			Eventually(session).Should(gexec.Exit(255))
			Eventually(session.Err).Should(gbytes.Say("invalid arguments"))
		})
	})
})
